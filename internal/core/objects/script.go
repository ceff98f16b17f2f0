package objects

import (
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/models"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/reflection"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/value"
)

// Script holds source text for the external interpreter.
type Script struct {
	models.Entity
	source  string
	enabled bool
}

func newScript() models.Object { return &Script{enabled: true} }

func newScriptApi(base *reflection.Api) *reflection.Api {
	api := reflection.NewApi("Script", base)
	get, set := reflection.Bind(
		func(s *Script) value.Value { return value.String(s.source) },
		reflection.SetString(func(s *Script, src string) { s.source = src }),
	)
	api.DeclareProperty("Source", value.TagString, get, set)

	get, set = reflection.Bind(
		func(s *Script) value.Value { return value.Bool(s.enabled) },
		reflection.SetBool(func(s *Script, b bool) { s.enabled = b }),
	)
	api.DeclareProperty("Enabled", value.TagBool, get, set)
	return api
}
