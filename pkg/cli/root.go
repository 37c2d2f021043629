package cli

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	zerr "github.com/regtools/tagreap/errors"
	"github.com/regtools/tagreap/pkg/api/config"
	zlog "github.com/regtools/tagreap/pkg/log"
)

var logger = zlog.NewLogger("info", "") // Global logger for configuration validation

func NewRootCmd() *cobra.Command {
	showVersion := false
	conf := config.New()

	rootCmd := &cobra.Command{
		Use:   "tagreap",
		Short: "`tagreap` applies tag retention policies to ECR repositories",
		Long: "`tagreap` parses image tags against a naming convention, groups them " +
			"and keeps only the newest members of each group",
		Run: func(cmd *cobra.Command, args []string) {
			if showVersion {
				logger.Info().Str("commit", config.Commit).
					Str("go version", config.GoVersion).Msg("version")
			} else {
				_ = cmd.Usage()
				cmd.SilenceErrors = false
			}
		},
	}

	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(newPlanCmd(conf))
	rootCmd.AddCommand(newSweepCmd(conf))

	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "show the version and exit")

	return rootCmd
}

// metadataConfig reports metadata after parsing, which we use to track
// errors.
func metadataConfig(md *mapstructure.Metadata) viper.DecoderConfigOption {
	return func(c *mapstructure.DecoderConfig) {
		c.Metadata = md
	}
}

func LoadConfiguration(conf *config.Config, configPath string) error {
	viperInstance := viper.New()
	viperInstance.SetConfigFile(configPath)

	if err := viperInstance.ReadInConfig(); err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("failed to read configuration")

		return err
	}

	metaData := &mapstructure.Metadata{}

	decoderOpts := []viper.DecoderConfigOption{
		metadataConfig(metaData),
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		)),
	}

	if err := viperInstance.UnmarshalExact(conf, decoderOpts...); err != nil {
		logger.Error().Err(err).Msg("failed to unmarshal new config")

		return err
	}

	if len(metaData.Keys) == 0 {
		msg := "failed to load config due to the absence of any key:value pair"
		logger.Error().Err(zerr.ErrBadConfig).Msg(msg)

		return fmt.Errorf("%w: %s", zerr.ErrBadConfig, msg)
	}

	if err := conf.Validate(); err != nil {
		logger.Error().Err(err).Msg("failed to validate config")

		return err
	}

	return nil
}
