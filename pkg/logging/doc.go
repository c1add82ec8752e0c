// Package logging configures log/slog for mockdeck components.
//
// Every component takes a *slog.Logger and falls back to Nop() when
// none is supplied, so packages never log through a global.
//
// # Usage
//
//	log := logging.New(logging.Config{
//	    Level:  logging.ParseLevel("debug"),
//	    Format: logging.FormatText,
//	})
//
//	log.Info("admin API listening", "port", 4590)
//
// ParseLevel and ParseFormat accept user input (flags, config files)
// and fall back to info/text rather than erroring; strict validation
// of those strings belongs to the config layer.
//
// # Teeing to a file
//
// NewTee writes human-readable output to the configured writer while
// duplicating every record as JSON to a second writer. The serve
// command uses it for --log-file:
//
//	lf, _ := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
//	log := logging.NewTee(cfg, lf)
package logging
