// Package persona holds the static registry of assistant personas: ids,
// display names, system prompts, welcome messages and quiz titles. Loaded at
// startup, never mutated.
package persona

// ID identifies one of the six fixed personas.
type ID string

const (
  GreenBot  ID = "greenbot"
  Lifestyle ID = "lifestyle"
  Waste     ID = "waste"
  Nature    ID = "nature"
  Energy    ID = "energy"
  Climate   ID = "climate"
)

// Default is the persona used whenever input cannot be resolved.
const Default = GreenBot

// All lists the known persona ids in display order.
var All = []ID{GreenBot, Lifestyle, Waste, Nature, Energy, Climate}

// DisplayName converts a persona id to its display name. Unknown input maps
// to the default persona, never an error.
func DisplayName(id ID) string {
  switch id {
  case GreenBot:
    return "GreenBot"
  case Lifestyle:
    return "EcoLife Guide"
  case Waste:
    return "Waste Wizard"
  case Nature:
    return "Nature Navigator"
  case Energy:
    return "Power Sage"
  case Climate:
    return "Climate Guardian"
  default:
    return "GreenBot"
  }
}

// FromDisplayName is the reverse lookup. Unknown names resolve to Default.
func FromDisplayName(name string) ID {
  switch name {
  case "GreenBot":
    return GreenBot
  case "EcoLife Guide":
    return Lifestyle
  case "Waste Wizard":
    return Waste
  case "Nature Navigator":
    return Nature
  case "Power Sage":
    return Energy
  case "Climate Guardian":
    return Climate
  default:
    return Default
  }
}

// Valid reports whether id names a known persona.
func Valid(id ID) bool {
  switch id {
  case GreenBot, Lifestyle, Waste, Nature, Energy, Climate:
    return true
  }
  return false
}

func WelcomeMessage(id ID) string {
  switch id {
  case GreenBot:
    return "I'm GreenBot, your general sustainability advisor. How can I help you with environmental topics today?"
  case Lifestyle:
    return "I'm your EcoLife Guide, specializing in sustainable lifestyle choices. How can I help you live more eco-consciously?"
  case Waste:
    return "I'm your Waste Wizard, focused on waste reduction and proper recycling practices. What would you like to know about managing waste more effectively?"
  case Nature:
    return "I'm your Nature Navigator, dedicated to biodiversity and conservation. How can I help you connect with and protect natural ecosystems?"
  case Energy:
    return "I'm your Power Sage, specializing in energy efficiency and renewable solutions. How can I help you optimize your energy usage?"
  case Climate:
    return "I'm your Climate Guardian, focused on climate action and resilience. How can I help you understand and address climate challenges?"
  default:
    return "How can I assist you with sustainability topics today?"
  }
}

func QuizTitle(id ID) string {
  switch id {
  case GreenBot:
    return "General Sustainability Quiz"
  case Lifestyle:
    return "Eco-Lifestyle Quiz"
  case Waste:
    return "Waste Management Quiz"
  case Nature:
    return "Biodiversity Quiz"
  case Energy:
    return "Energy Efficiency Quiz"
  case Climate:
    return "Climate Action Quiz"
  default:
    return "Environmental Quiz"
  }
}
