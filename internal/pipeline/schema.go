package pipeline

import "encoding/json"

// businessExtractionSchema is the JSON schema sent with schema-mode
// extraction requests. One unified shape covers all six business
// types; type-specific steering lives in the prompt instead.
const businessExtractionSchema = `{
  "type": "object",
  "properties": {
    "business_name": {
      "type": "string",
      "description": "Official name of the business"
    },
    "business_type": {
      "type": "string",
      "description": "Type of business (dog_kennel, cattery, dog_groomer, veterinary_clinic, dog_daycare, dog_sitter)"
    },
    "description": {
      "type": "string",
      "description": "Brief description of the business"
    },
    "contact": {
      "type": "object",
      "description": "Contact details",
      "properties": {
        "phone": {"type": "string", "description": "Primary phone number"},
        "email": {"type": "string", "description": "Primary email address"},
        "address": {"type": "string", "description": "Physical address"},
        "website": {"type": "string", "description": "Website URL if different from scraped URL"}
      }
    },
    "services": {
      "type": "array",
      "description": "List of services with prices",
      "items": {
        "type": "object",
        "properties": {
          "service_name": {"type": "string", "description": "Name of the service"},
          "price": {"type": "number", "description": "Price as a decimal number"},
          "price_text": {"type": "string", "description": "Original price text if parsing fails (e.g., 'from 25')"},
          "unit": {"type": "string", "description": "Pricing unit (e.g., 'per_night', 'per_session', 'per_hour')"},
          "description": {"type": "string", "description": "Additional service description"},
          "variations": {
            "type": "array",
            "items": {"type": "string"},
            "description": "Service variations (e.g., sizes, breeds)"
          }
        },
        "required": ["service_name"]
      }
    },
    "vaccination_requirements": {
      "type": "array",
      "description": "Required vaccinations for pets",
      "items": {
        "type": "object",
        "properties": {
          "vaccine_name": {"type": "string", "description": "Name of required vaccination"},
          "requirement_details": {"type": "string", "description": "Additional requirements (e.g., 'within 12 months')"}
        },
        "required": ["vaccine_name"]
      }
    },
    "drop_off_procedure": {"type": "string", "description": "Check-in/drop-off procedure"},
    "pick_up_procedure": {"type": "string", "description": "Check-out/pick-up procedure"},
    "cancellation_policy": {"type": "string", "description": "Cancellation policy details"},
    "deposit_policy": {"type": "string", "description": "Deposit requirements"},
    "amenities": {
      "type": "array",
      "items": {"type": "string"},
      "description": "Available amenities and features"
    },
    "opening_hours": {"type": "string", "description": "Business operating hours"},
    "special_notes": {"type": "string", "description": "Any other important information"}
  }
}`

// ExtractionSchema returns the schema as a raw JSON message for the
// extract request body.
func ExtractionSchema() json.RawMessage {
	return json.RawMessage(businessExtractionSchema)
}
