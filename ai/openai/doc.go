// Package openai implements ai.Embedder against OpenAI-compatible
// embedding APIs, including local servers such as Ollama.
package openai
