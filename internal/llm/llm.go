package llm

import llmclient "nexa/internal/llmClient"

// LLMClient is the client contract every middleware wraps.
type LLMClient = llmclient.LLMClient

// GenerationConfig is re-exported so stage code depends on one package.
type GenerationConfig = llmclient.GenerationConfig
