package catalog

import (
	"testing"

	"github.com/Laisky/errors/v2"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/songquanpeng/prompt-studio/relay/adaptor"
	"github.com/songquanpeng/prompt-studio/relay/adaptor/aws"
	"github.com/songquanpeng/prompt-studio/relay/adaptor/aws/llama3"
	"github.com/songquanpeng/prompt-studio/relay/adaptor/aws/titan"
	"github.com/songquanpeng/prompt-studio/relay/channeltype"
	"github.com/songquanpeng/prompt-studio/relay/meta"
)

func TestDefaultCatalog(t *testing.T) {
	Convey("built-in catalog", t, func() {
		cat := Default()

		Convey("lists only models with configs", func() {
			ids := cat.ListModelIDs()
			So(ids, ShouldContain, "anthropic.claude-3-haiku-20240307-v1:0")
			So(ids, ShouldContain, "gpt-4o")
			So(ids, ShouldNotContain, "ai21.j2-ultra-v1")
			So(len(cat.Entries()), ShouldEqual, len(ids)+2)
		})

		Convey("resolves every bedrock family at load", func() {
			for _, e := range cat.Available() {
				if e.Model.Type == channeltype.Bedrock {
					So(e.Family, ShouldNotEqual, aws.Family(0))
				}
			}
		})

		Convey("judge is the first entry with the messages convention", func() {
			model, cfg, err := cat.Judge()
			So(err, ShouldBeNil)
			So(model.ModelID, ShouldEqual, "anthropic.claude-3-haiku-20240307-v1:0")
			So(cfg.MessagesAPI(), ShouldBeTrue)
		})

		Convey("lookup", func() {
			model, cfg, err := cat.Lookup("meta.llama3-8b-instruct-v1:0", "")
			So(err, ShouldBeNil)
			So(model.Type, ShouldEqual, channeltype.Bedrock)

			_, same, err := cat.Lookup("meta.llama3-8b-instruct-v1:0", cfg.ConfigID())
			So(err, ShouldBeNil)
			So(same, ShouldEqual, cfg)

			_, _, err = cat.Lookup("meta.llama3-8b-instruct-v1:0", "not-a-config")
			So(errors.Is(err, ErrConfigNotFound), ShouldBeTrue)

			// a config from another model never pairs
			_, titanCfg, err := cat.Lookup("amazon.titan-text-lite-v1", "")
			So(err, ShouldBeNil)
			_, _, err = cat.Lookup("meta.llama3-8b-instruct-v1:0", titanCfg.ConfigID())
			So(errors.Is(err, ErrConfigNotFound), ShouldBeTrue)

			_, _, err = cat.Lookup("nope", "")
			So(errors.Is(err, ErrModelNotFound), ShouldBeTrue)

			_, _, err = cat.Lookup("ai21.j2-mid-v1", "")
			So(errors.Is(err, ErrNoConfigs), ShouldBeTrue)
		})
	})
}

func TestNewRejectsBadEntries(t *testing.T) {
	Convey("catalog validation", t, func() {
		bedrock := func(id string, cfgs ...adaptor.InferenceConfig) Entry {
			return Entry{Model: meta.ModelConfig{Type: channeltype.Bedrock, ModelID: id}, Configs: cfgs}
		}

		_, err := New([]Entry{bedrock("unknown.vendor-x", llama3.DefaultConfig("l"))})
		var unsupported *aws.UnsupportedModelError
		So(errors.As(err, &unsupported), ShouldBeTrue)

		_, err = New([]Entry{bedrock("meta.llama3-8b-instruct-v1:0", llama3.DefaultConfig(""))})
		So(err, ShouldNotBeNil)

		bad := titan.DefaultConfig("t")
		bad.TopP = 3
		_, err = New([]Entry{bedrock("amazon.titan-text-lite-v1", bad)})
		So(err, ShouldNotBeNil)

		_, err = New([]Entry{
			bedrock("meta.llama3-8b-instruct-v1:0", llama3.DefaultConfig("a")),
			bedrock("meta.llama3-8b-instruct-v1:0", llama3.DefaultConfig("b")),
		})
		So(err, ShouldNotBeNil)

		_, err = New([]Entry{{Model: meta.ModelConfig{Type: "vertex", ModelID: "x"}}})
		var unknown *adaptor.UnknownModelTypeError
		So(errors.As(err, &unknown), ShouldBeTrue)
	})
}

func TestFamilyOverride(t *testing.T) {
	Convey("family set on the entry wins over the model id", t, func() {
		arn := "arn:aws:bedrock:us-east-1:123456789012:provisioned-model/abc123"
		cat, err := New([]Entry{{
			Model:   meta.ModelConfig{Type: channeltype.Bedrock, ModelID: arn},
			Configs: []adaptor.InferenceConfig{titan.DefaultConfig("t")},
			Family:  aws.FamilyTitan,
		}})
		So(err, ShouldBeNil)
		So(cat.Entries()[0].Family, ShouldEqual, aws.FamilyTitan)

		model, _, err := cat.Lookup(arn, "")
		So(err, ShouldBeNil)
		So(model.Family, ShouldEqual, "titan")

		cat, err = New([]Entry{{
			Model:   meta.ModelConfig{Type: channeltype.Bedrock, ModelID: arn, Family: "llama"},
			Configs: []adaptor.InferenceConfig{llama3.DefaultConfig("l")},
		}})
		So(err, ShouldBeNil)
		So(cat.Entries()[0].Family, ShouldEqual, aws.FamilyLlama)

		_, err = New([]Entry{{
			Model:   meta.ModelConfig{Type: channeltype.Bedrock, ModelID: arn},
			Configs: []adaptor.InferenceConfig{titan.DefaultConfig("t")},
		}})
		var unsupported *aws.UnsupportedModelError
		So(errors.As(err, &unsupported), ShouldBeTrue)
	})
}
