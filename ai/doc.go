// Package ai defines the contracts for the external embedding and
// completion services and their shared configuration. Concrete
// implementations live in the openai subpackage (any OpenAI-compatible
// endpoint) and the mock subpackage (deterministic test doubles).
package ai
