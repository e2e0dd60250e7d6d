// Package migrations embeds the goose SQL files shipped with the binary.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
