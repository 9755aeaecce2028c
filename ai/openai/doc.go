// Package openai implements the ai interfaces using OpenAI-compatible APIs.
//
// The implementation is built on langchaingo and works with any service that
// speaks the OpenAI embeddings protocol (OpenAI itself, Ollama, LocalAI,
// vLLM). An optional client-side rate limit guards against hitting provider
// quotas during large ingestions.
package openai
