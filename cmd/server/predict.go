package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/Brownie44l1/croprec-api/internal/handlers"
	"github.com/Brownie44l1/croprec-api/internal/model"
	"github.com/spf13/cobra"
)

func newPredictCmd(opts *rootOptions) *cobra.Command {
	var decision bool
	cmd := &cobra.Command{
		Use:   "predict [file|-]",
		Short: "Run one prediction request from a JSON file or stdin",
		Long: "Runs a request body through the same validation and ranking as POST /predict " +
			"and prints the response payload. Exits non-zero unless the status is 200.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(cmd, args)
			if err != nil {
				return err
			}
			cfg, err := opts.loadConfig(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			store, err := loadStore(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize model store: %w", err)
			}
			defer store.Close()

			if decision {
				return runDecision(cmd.OutOrStdout(), store, body)
			}
			return runPredict(cmd.OutOrStdout(), handlers.NewInferer(store), body)
		},
	}
	cmd.Flags().BoolVar(&decision, "decision", false, "print only the single predicted crop (works without probability support)")
	return cmd
}

func readBody(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	return b, nil
}

func runPredict(w io.Writer, in *handlers.Inferer, body []byte) error {
	status, payload := in.Infer(body)
	if err := writeJSON(w, payload); err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("prediction failed with status %d", status)
	}
	return nil
}

// decider is the subset of the store used by --decision.
type decider interface {
	Classify(features []float64) (int, error)
	DecodeLabel(index int) (string, error)
}

func runDecision(w io.Writer, store decider, body []byte) error {
	features, err := handlers.Features(body)
	if err != nil {
		writeJSON(w, model.ErrorResponse{Error: err.Error()})
		return fmt.Errorf("invalid request: %w", err)
	}
	idx, err := store.Classify(features)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	crop, err := store.DecodeLabel(idx)
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]string{"crop": crop})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
