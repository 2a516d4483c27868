package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/melih/lighthouse-storage/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func NewRootCmd() (*cobra.Command, error) {
	v := config.New()

	cmd := &cobra.Command{
		Use:           "lighthouse",
		Short:         "Self-service MySQL and Redis instances on a shared Docker host",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, v)
		},
	}

	if err := bindFlags(cmd, v); err != nil {
		return nil, err
	}
	cmd.AddCommand(newServeCmd(v), newVersionCmd())
	return cmd, nil
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "path to a config file (yaml, toml or json)")
	flags.String("env-file", ".env", "dotenv file loaded before reading the environment")
	flags.String("listen", ":3000", "HTTP listen address")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("docker-host", "", "Docker daemon address, DOCKER_HOST when empty")
	flags.String("host-ip", "127.0.0.1", "address clients use to reach provisioned instances")
	flags.String("volume-root", "/var/lib/lighthouse/volumes", "host directory holding instance volumes")
	flags.Duration("settle-delay", 3*time.Second, "wait after starting a container before verifying it")

	bindings := map[string]string{
		config.KeyConfigFile:       "config",
		config.KeyHTTPListen:       "listen",
		config.KeyLogLevel:         "log-level",
		config.KeyDockerHost:       "docker-host",
		config.KeyDockerHostIP:     "host-ip",
		config.KeyDockerVolumeRoot: "volume-root",
		config.KeySettleDelay:      "settle-delay",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the lighthouse version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(version)
		},
	}
}
