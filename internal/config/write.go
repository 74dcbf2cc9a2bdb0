package config

import (
	"io"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// WriteHCL renders the configuration in the same HCL layout Load reads
func (c *Config) WriteHCL(w io.Writer) error {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	comp := root.AppendNewBlock("companion", nil).Body()
	comp.SetAttributeValue("api_url", cty.StringVal(c.Companion.APIURL))
	comp.SetAttributeValue("model_name", cty.StringVal(c.Companion.ModelName))
	comp.SetAttributeValue("api_key", cty.StringVal(c.Companion.APIKey))
	comp.SetAttributeValue("persona_templates_path", cty.StringVal(c.Companion.PersonaTemplatesPath))
	comp.SetAttributeValue("request_timeout", cty.StringVal(c.Companion.RequestTimeout.String()))
	comp.SetAttributeValue("workers", cty.NumberIntVal(int64(c.Companion.Workers)))
	comp.SetAttributeValue("queue_size", cty.NumberIntVal(int64(c.Companion.QueueSize)))
	comp.SetAttributeValue("temperature", cty.NumberFloatVal(c.Companion.Temperature))
	comp.SetAttributeValue("max_tokens", cty.NumberIntVal(int64(c.Companion.MaxTokens)))
	comp.SetAttributeValue("comment_on", stringList(c.Companion.CommentOn))
	if c.Companion.Disabled {
		comp.SetAttributeValue("disabled", cty.True)
	}
	root.AppendNewline()

	game := root.AppendNewBlock("game", nil).Body()
	game.SetAttributeValue("knock_threshold", cty.NumberIntVal(int64(c.Game.KnockThreshold)))
	game.SetAttributeValue("match_score_limit", cty.NumberIntVal(int64(c.Game.MatchScoreLimit)))
	game.SetAttributeValue("undercut_bonus", cty.NumberIntVal(int64(c.Game.UndercutBonus)))
	game.SetAttributeValue("gin_bonus", cty.NumberIntVal(int64(c.Game.GinBonus)))
	game.SetAttributeValue("layoffs", cty.BoolVal(c.Game.LayOffs))
	game.SetAttributeValue("max_turns", cty.NumberIntVal(int64(c.Game.MaxTurns)))
	if seed, ok := c.Seed(); ok {
		game.SetAttributeValue("rng_seed", cty.NumberIntVal(seed))
	}
	game.SetAttributeValue("human_name", cty.StringVal(c.Game.HumanName))
	game.SetAttributeValue("companions", cty.NumberIntVal(int64(c.Game.Companions)))
	root.AppendNewline()

	logBlock := root.AppendNewBlock("log", nil).Body()
	logBlock.SetAttributeValue("level", cty.StringVal(c.Log.Level))
	logBlock.SetAttributeValue("file", cty.StringVal(c.Log.File))

	_, err := f.WriteTo(w)
	return err
}

func stringList(values []string) cty.Value {
	if len(values) == 0 {
		return cty.ListValEmpty(cty.String)
	}
	vals := make([]cty.Value, len(values))
	for i, v := range values {
		vals[i] = cty.StringVal(v)
	}
	return cty.ListVal(vals)
}
