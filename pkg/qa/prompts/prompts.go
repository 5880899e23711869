// Package prompts embeds the default prompt templates for the QA chain.
package prompts

import "embed"

//go:embed *.md
var FS embed.FS
