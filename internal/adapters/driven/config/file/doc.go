// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the docuchat data directory.
//
// Adapters:
//   - ConfigStore: TOML settings written by "docuchat config set"
//   - PromptStore: user-editable LLM prompt templates
package file
