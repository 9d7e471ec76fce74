package main

import (
	"io"

	"github.com/Brownie44l1/croprec-api/internal/config"
	"github.com/Brownie44l1/croprec-api/internal/handlers"
	"github.com/Brownie44l1/croprec-api/internal/logging"
	"github.com/Brownie44l1/croprec-api/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const longDescription = "Crop recommendation service. Loads a trained classifier and its label codec once, " +
	"then ranks the five most likely crops for a set of soil and weather measurements."

var logger = &logging.Logger{PrefixText: "Server:", PrefixColor: "#10B981"}

type rootOptions struct {
	cfgFile string
	v       *viper.Viper
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	cmd := &cobra.Command{
		Use:           "croprec",
		Short:         "Serve top-5 crop recommendations from a trained classifier",
		Long:          longDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is ./croprec.yaml or ./config/croprec.yaml)")
	flags.String("model", "", "path to the classifier artifact (.onnx, .json, .yaml)")
	flags.String("codec", "", "path to the label codec (.json, .yaml)")
	flags.String("onnx-library", "", "path to the onnxruntime shared library")
	flags.Bool("verbose", false, "log every request decision")
	flags.Bool("no-color", false, "disable colored log prefixes")
	for key, name := range map[string]string{
		"model.path":   "model",
		"model.codec":  "codec",
		"onnx.library": "onnx-library",
		"log.verbose":  "verbose",
	} {
		cobra.CheckErr(opts.v.BindPFlag(key, flags.Lookup(name)))
	}

	cmd.AddCommand(newServeCmd(opts), newPredictCmd(opts))
	return cmd
}

// loadConfig reads .env, the config file and the environment, then points
// every package logger at w.
func (o *rootOptions) loadConfig(cmd *cobra.Command, w io.Writer) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(o.v, o.cfgFile)
	if err != nil {
		return nil, err
	}

	noColor, _ := cmd.Flags().GetBool("no-color")
	logging.SetColor(cfg.Log.Color && !noColor)
	logger.SetWriter(w)
	model.SetLogger(w)
	handlers.SetLogger(w, cfg.Log.Verbose)
	if cfg.Log.Verbose {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if used := o.v.ConfigFileUsed(); used != "" {
		logger.Logf("", "using config file: %s", used)
	}
	return cfg, nil
}

func loadStore(cfg *config.Config) (*model.Store, error) {
	logger.Logf("", "loading model from: %s", cfg.Model.Path)
	return model.Load(cfg.Model.Path, cfg.Model.Codec, model.WithONNXLibrary(cfg.ONNX.Library))
}
