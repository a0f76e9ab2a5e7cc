package pipeline

import "github.com/pawsight/extract-cli/internal/model"

// Per-business-type extraction prompts. Each steers the extractor at
// the pricing structures that type of business typically publishes.
var extractionPrompts = map[model.BusinessType]string{
	model.BusinessTypeDogKennel: `
Extract information from this dog boarding kennel website. Focus on:
- Business name and contact details
- Boarding rates (per night, per day)
- Different kennel/room types and their prices
- Multi-dog discounts
- Required vaccinations (especially kennel cough)
- Drop-off and pick-up times/procedures
- Cancellation and deposit policies
- Amenities (outdoor runs, heating, webcams, etc.)

Extract all pricing information you can find, including any size-based tiers
(small, medium, large dogs) and seasonal variations.
`,
	model.BusinessTypeCattery: `
Extract information from this cattery/cat boarding website. Focus on:
- Business name and contact details
- Boarding rates (per night, per day)
- Different pen/suite types and their prices
- Multi-cat discounts (same family)
- Required vaccinations
- Drop-off and pick-up times/procedures
- Cancellation and deposit policies
- Amenities (heating, individual rooms, outdoor access, etc.)

Extract all pricing information you can find.
`,
	model.BusinessTypeDogGroomer: `
Extract information from this dog grooming website. Focus on:
- Business name and contact details
- Grooming services and prices
- Different pricing by dog size (small, medium, large, giant)
- Different pricing by coat type or breed
- Individual services (bath, nail trim, ear cleaning, etc.)
- Package deals or combinations
- Puppy/first groom pricing

Extract ALL pricing information, noting size/breed variations.
This type often has complex pricing tables - capture everything.
`,
	model.BusinessTypeVetClinic: `
Extract information from this veterinary clinic website. Focus on:
- Practice name and contact details
- Consultation fees (standard, emergency, out-of-hours)
- Vaccination prices
- Common procedure prices if listed
- Diagnostic services (blood tests, x-rays, etc.)
- Health plans or wellness packages
- Registration fees for new clients

Extract whatever pricing is publicly available. Many vets don't list all prices,
so capture what's there and note any "contact for quote" situations.
`,
	model.BusinessTypeDogDaycare: `
Extract information from this dog daycare website. Focus on:
- Business name and contact details
- Day care rates (full day, half day)
- Package deals (5 days, 10 days, monthly)
- Membership or subscription options
- Trial day pricing
- Multi-dog discounts
- Required vaccinations
- Drop-off and pick-up times
- Cancellation policy

Extract all pricing including any package or bulk discounts.
`,
	model.BusinessTypeDogSitter: `
Extract information from this dog sitting/walking service website. Focus on:
- Business name and contact details
- Dog walking prices (30 min, 1 hour)
- Home visit prices
- Overnight sitting rates
- Puppy visit rates
- Additional dog pricing
- Geographic coverage area
- Cancellation policy

This type typically has straightforward pricing - capture all service types and rates.
`,
}

// ExtractionPrompt returns the prompt for a business type. Unknown
// types fall back to the kennel prompt, the most general of the set.
func ExtractionPrompt(businessType model.BusinessType) string {
	if p, ok := extractionPrompts[businessType]; ok {
		return p
	}
	return extractionPrompts[model.BusinessTypeDogKennel]
}

// Without a schema constraining the response, prompt-only extraction
// needs the field shape spelled out or the returned JSON won't match
// our field names.
const fallbackFieldGuide = `

Return the data as a JSON object with these fields:
- business_name: string
- business_type: string
- description: string
- contact: {phone, email, address}
- services: [{service_name, price, unit, description}]
- vaccination_requirements: [{vaccine_name, requirement_details}]
- cancellation_policy: string
- deposit_policy: string
- opening_hours: string
- amenities: [string]
`

// FallbackPrompt appends the expected JSON field shape to the base
// prompt for schema-less extraction.
func FallbackPrompt(base string) string {
	return base + fallbackFieldGuide
}
