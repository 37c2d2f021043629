package config_test

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	zerr "github.com/regtools/tagreap/errors"
	"github.com/regtools/tagreap/pkg/api/config"
)

func TestConfigValidation(t *testing.T) {
	Convey("Given a default config with a repository", t, func() {
		conf := config.New()
		conf.Registry.Region = "eu-west-1"
		conf.Registry.Repository = "shop"

		Convey("It validates", func() {
			So(conf.Validate(), ShouldBeNil)
		})

		Convey("A missing repository is a config error", func() {
			conf.Registry.Repository = ""

			So(errors.Is(conf.Validate(), zerr.ErrBadConfig), ShouldBeTrue)
		})

		Convey("A batch size above the ECR limit is a config error", func() {
			conf.Registry.BatchSize = config.MaxBatchSize + 1

			So(errors.Is(conf.Validate(), zerr.ErrBadConfig), ShouldBeTrue)
		})

		Convey("A zero batch size is a config error", func() {
			conf.Registry.BatchSize = 0

			So(errors.Is(conf.Validate(), zerr.ErrBadConfig), ShouldBeTrue)
		})

		Convey("No policies is a config error", func() {
			conf.Retention.Policies = nil

			So(errors.Is(conf.Validate(), zerr.ErrBadConfig), ShouldBeTrue)
		})

		Convey("A negative keep count is fatal, not clamped", func() {
			conf.Retention.Policies[0].KeepCount = -1

			So(errors.Is(conf.Validate(), zerr.ErrNegativeKeepCount), ShouldBeTrue)
		})

		Convey("A keep count of zero is a valid configuration", func() {
			conf.Retention.Policies[0].KeepCount = 0

			So(conf.Validate(), ShouldBeNil)
		})

		Convey("An uncompilable pattern is fatal", func() {
			conf.Retention.Policies[0].Pattern = "^(?P<project>["

			So(errors.Is(conf.Validate(), zerr.ErrBadPattern), ShouldBeTrue)
		})

		Convey("A pattern without a project group is fatal", func() {
			conf.Retention.Policies[0].Pattern = `^(?P<environment>[a-z]+)$`

			So(errors.Is(conf.Validate(), zerr.ErrBadPattern), ShouldBeTrue)
		})

		Convey("An unknown recency source is fatal", func() {
			conf.Retention.Policies[0].Recency = "newest"

			So(errors.Is(conf.Validate(), zerr.ErrBadConfig), ShouldBeTrue)
		})

		Convey("Embedded recency needs a date group", func() {
			conf.Retention.Policies[0].Pattern = `^(?P<project>[a-z]+)$`
			conf.Retention.Policies[0].Recency = config.RecencyEmbedded

			So(errors.Is(conf.Validate(), zerr.ErrBadConfig), ShouldBeTrue)
		})

		Convey("Version recency needs a version group", func() {
			conf.Retention.Policies[0].Recency = config.RecencyVersion

			So(errors.Is(conf.Validate(), zerr.ErrBadConfig), ShouldBeTrue)
		})

		Convey("Pushed recency needs no capture beyond project", func() {
			conf.Retention.Policies[0].Pattern = `^(?P<project>[a-z]+)$`
			conf.Retention.Policies[0].Recency = config.RecencyPushed

			So(conf.Validate(), ShouldBeNil)
		})

		Convey("A policy with no repository patterns is fatal", func() {
			conf.Retention.Policies[0].Repositories = nil

			So(errors.Is(conf.Validate(), zerr.ErrBadConfig), ShouldBeTrue)
		})
	})
}

func TestPolicyForRepo(t *testing.T) {
	Convey("Policy selection matches repository globs in order", t, func() {
		conf := config.New()
		conf.Retention.Policies = []config.KeepPolicy{
			{Repositories: []string{"team-a/*"}, KeepCount: 5},
			{Repositories: []string{"**"}, KeepCount: 3},
		}

		policy, err := conf.PolicyForRepo("team-a/shop")
		So(err, ShouldBeNil)
		So(policy.KeepCount, ShouldEqual, 5)

		policy, err = conf.PolicyForRepo("team-b/shop")
		So(err, ShouldBeNil)
		So(policy.KeepCount, ShouldEqual, 3)

		Convey("No match is reported, planning must not proceed", func() {
			conf.Retention.Policies = []config.KeepPolicy{
				{Repositories: []string{"team-a/*"}, KeepCount: 5},
			}

			_, err := conf.PolicyForRepo("team-b/shop")
			So(errors.Is(err, zerr.ErrPolicyNotFound), ShouldBeTrue)
		})
	})
}
