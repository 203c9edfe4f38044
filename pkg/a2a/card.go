package a2a

import (
	"fmt"

	"github.com/spf13/viper"
	"github.com/theapemachine/a2a-engine/pkg/utils"
)

// Supported transports for the preferredTransport card field.
const (
	TransportJSONRPC  = "JSONRPC"
	TransportGRPC     = "GRPC"
	TransportHTTPJSON = "HTTP+JSON"
)

// AgentCapabilities describes the capabilities of an agent
type AgentCapabilities struct {
	// Streaming indicates if the agent supports streaming responses
	Streaming bool `json:"streaming,omitempty"`
	// PushNotifications indicates if the agent supports push notification mechanisms
	PushNotifications bool `json:"pushNotifications,omitempty"`
	// StateTransitionHistory indicates if the agent supports providing state transition history
	StateTransitionHistory bool `json:"stateTransitionHistory,omitempty"`
	// Extensions lists protocol extensions the agent supports
	Extensions []AgentExtension `json:"extensions,omitempty"`
}

// AgentExtension declares a protocol extension supported by an agent.
type AgentExtension struct {
	URI         string         `json:"uri"`
	Description *string        `json:"description,omitempty"`
	Required    bool           `json:"required,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
}

// AgentProvider represents the provider or organization behind an agent
type AgentProvider struct {
	// Organization is the name of the organization providing the agent
	Organization string `json:"organization"`
	// URL associated with the agent provider
	URL *string `json:"url,omitempty"`
}

// AgentSkill defines a specific skill or capability offered by an agent
type AgentSkill struct {
	// ID is the unique identifier for the skill
	ID string `json:"id"`
	// Name is the human-readable name of the skill
	Name string `json:"name"`
	// Description is an optional description of the skill
	Description *string `json:"description,omitempty"`
	// Tags is an optional list of tags associated with the skill for categorization
	Tags []string `json:"tags,omitempty"`
	// Examples is an optional list of example inputs or use cases for the skill
	Examples []string `json:"examples,omitempty"`
	// InputModes is an optional list of input modes supported by this skill
	InputModes []string `json:"inputModes,omitempty"`
	// OutputModes is an optional list of output modes supported by this skill
	OutputModes []string `json:"outputModes,omitempty"`
}

/*
SecurityScheme is a discriminated union over the security scheme kinds an
agent card may declare.  Exactly one member should be set.
*/
type SecurityScheme struct {
	APIKey        *APIKeySecurityScheme        `json:"apiKeySecurityScheme,omitempty"`
	HTTPAuth      *HTTPAuthSecurityScheme      `json:"httpAuthSecurityScheme,omitempty"`
	OAuth2        *OAuth2SecurityScheme        `json:"oauth2SecurityScheme,omitempty"`
	OpenIDConnect *OpenIDConnectSecurityScheme `json:"openIdConnectSecurityScheme,omitempty"`
}

type APIKeySecurityScheme struct {
	Name        string  `json:"name"`
	Location    string  `json:"in"`
	Description *string `json:"description,omitempty"`
}

type HTTPAuthSecurityScheme struct {
	Scheme       string  `json:"scheme"`
	BearerFormat *string `json:"bearerFormat,omitempty"`
	Description  *string `json:"description,omitempty"`
}

type OAuth2SecurityScheme struct {
	TokenURL    string            `json:"tokenUrl"`
	Scopes      map[string]string `json:"scopes,omitempty"`
	Description *string           `json:"description,omitempty"`
}

type OpenIDConnectSecurityScheme struct {
	OpenIDConnectURL string  `json:"openIdConnectUrl"`
	Description      *string `json:"description,omitempty"`
}

// AgentCard represents the discovery metadata document for an agent
type AgentCard struct {
	// Name is the name of the agent
	Name string `json:"name"`
	// Description is an optional description of the agent
	Description *string `json:"description,omitempty"`
	// URL is the base URL endpoint for interacting with the agent
	URL string `json:"url"`
	// Provider is information about the provider of the agent
	Provider *AgentProvider `json:"provider,omitempty"`
	// Version is the version identifier for the agent or its API
	Version string `json:"version"`
	// DocumentationURL is an optional URL pointing to the agent's documentation
	DocumentationURL *string `json:"documentationUrl,omitempty"`
	// Capabilities are the capabilities supported by the agent
	Capabilities AgentCapabilities `json:"capabilities"`
	// PreferredTransport names the transport of the URL endpoint (default JSONRPC)
	PreferredTransport string `json:"preferredTransport,omitempty"`
	// SecuritySchemes declares how callers may authenticate
	SecuritySchemes map[string]SecurityScheme `json:"securitySchemes,omitempty"`
	// DefaultInputModes are the default input modes supported by the agent
	DefaultInputModes []string `json:"defaultInputModes,omitempty"`
	// DefaultOutputModes are the default output modes supported by the agent
	DefaultOutputModes []string `json:"defaultOutputModes,omitempty"`
	// Skills is the list of specific skills offered by the agent
	Skills []AgentSkill `json:"skills"`
}

func NewAgentCardFromConfig(key string) *AgentCard {
	v := viper.GetViper()
	skillArray := v.GetStringSlice(fmt.Sprintf("agent.%s.skills", key))

	skills := make([]AgentSkill, len(skillArray))

	for i, skill := range skillArray {
		skills[i] = NewSkillFromConfig(skill)
	}

	card := &AgentCard{
		Name:    v.GetString(fmt.Sprintf("agent.%s.name", key)),
		Version: v.GetString(fmt.Sprintf("agent.%s.version", key)),
		URL:     v.GetString(fmt.Sprintf("agent.%s.url", key)),
		Provider: &AgentProvider{
			Organization: v.GetString(fmt.Sprintf("agent.%s.provider.organization", key)),
			URL:          utils.Ptr(v.GetString(fmt.Sprintf("agent.%s.provider.url", key))),
		},
		Capabilities: AgentCapabilities{
			Streaming:              v.GetBool(fmt.Sprintf("agent.%s.capabilities.streaming", key)),
			PushNotifications:      v.GetBool(fmt.Sprintf("agent.%s.capabilities.pushNotifications", key)),
			StateTransitionHistory: v.GetBool(fmt.Sprintf("agent.%s.capabilities.stateTransitionHistory", key)),
		},
		PreferredTransport: TransportJSONRPC,
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"text/plain"},
		Skills:             skills,
	}

	if description := v.GetString(fmt.Sprintf("agent.%s.description", key)); description != "" {
		card.Description = utils.Ptr(description)
	}

	return card
}

func NewSkillFromConfig(skill string) AgentSkill {
	v := viper.GetViper()

	return AgentSkill{
		ID:          v.GetString(fmt.Sprintf("skills.%s.id", skill)),
		Name:        v.GetString(fmt.Sprintf("skills.%s.name", skill)),
		Description: utils.Ptr(v.GetString(fmt.Sprintf("skills.%s.description", skill))),
		Tags:        v.GetStringSlice(fmt.Sprintf("skills.%s.tags", skill)),
	}
}
