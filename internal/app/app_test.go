package app

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestComponentLoggerUsesConfiguredOutput(t *testing.T) {
	saved, savedLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = saved
		zerolog.SetGlobalLevel(savedLevel)
	})

	var buf bytes.Buffer
	setupLogging(&buf, "info")

	logger().Info().Msg("component-line")
	logger().Debug().Msg("hidden-line")

	out := buf.String()
	if !strings.Contains(out, "component-line") || !strings.Contains(out, "component=app") {
		t.Errorf("component log not written through console writer: %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("expected console format, got JSON: %q", out)
	}
	if strings.Contains(out, "hidden-line") {
		t.Error("debug line written at info level")
	}
}
