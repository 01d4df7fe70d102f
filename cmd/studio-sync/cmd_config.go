package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/betterstudio/studio-sync/internal/catalog"
	"github.com/betterstudio/studio-sync/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the shared configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the full configuration as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		data, err := json.MarshalIndent(ctrl.State().Config, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var configModelCmd = &cobra.Command{
	Use:   "model <id>",
	Short: "Switch the active model",
	Long:  "Switches the model with the full protocol: the outgoing model's settings are cached, the incoming model's cached or default settings restored, tools gated and parameters clamped.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		if _, ok := catalog.Lookup(id); !ok {
			return fmt.Errorf("unknown model %q (known: %s)", id, strings.Join(catalog.IDs(), ", "))
		}

		ctrl, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := ctrl.SetModel(id); err != nil {
			return err
		}
		fmt.Printf("Model set to %s\n", id)
		return nil
	},
}

var configToggleCmd = &cobra.Command{
	Use:   "toggle <tool> <on|off>",
	Short: "Toggle a tool with exclusivity rules applied",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tool := config.Tool(args[0])
		valid := false
		for _, t := range config.Tools {
			if t == tool {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("unknown tool %q", args[0])
		}
		var on bool
		switch args[1] {
		case "on":
			on = true
		case "off":
			on = false
		default:
			return fmt.Errorf("expected 'on' or 'off', got %q", args[1])
		}

		ctrl, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := ctrl.ToggleTool(tool, on); err != nil {
			return err
		}
		cfg := ctrl.State().Config
		fmt.Printf("Tools: search=%v url=%v code=%v structured=%v functions=%v\n",
			cfg.Search, cfg.URLContext, cfg.Code, cfg.Structured, cfg.Functions)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <field> <value>",
	Short: "Set one configuration field",
	Long:  "Fields: temp, topP, topK, maxTokens, thinking, instructions, aspectRatio, resolution, disable, autoCloseNav, autoCloseSettings, collapseHistory, hideEmail. Numeric values are clamped to the active model's ranges.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		field, value := args[0], args[1]
		if !knownFields[field] {
			return fmt.Errorf("unknown field %q", field)
		}

		ctrl, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		return ctrl.UpdateConfig(func(cfg *config.Configuration) {
			applyField(cfg, field, value)
			config.ClampParams(cfg)
		})
	},
}

var knownFields = map[string]bool{
	"temp": true, "topP": true, "topK": true, "maxTokens": true,
	"thinking": true, "instructions": true, "aspectRatio": true, "resolution": true,
	"disable": true, "autoCloseNav": true, "autoCloseSettings": true,
	"collapseHistory": true, "hideEmail": true,
}

func applyField(cfg *config.Configuration, field, value string) {
	switch field {
	case "temp":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			cfg.Temperature = v
		}
	case "topP":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			cfg.TopP = v
		}
	case "topK":
		if v, err := strconv.Atoi(value); err == nil {
			cfg.TopK = v
		}
	case "maxTokens":
		if v, err := strconv.Atoi(value); err == nil {
			cfg.MaxTokens = v
		}
	case "thinking":
		cfg.Thinking = value
	case "instructions":
		cfg.Instructions = value
	case "aspectRatio":
		cfg.AspectRatio = value
	case "resolution":
		cfg.Resolution = value
	case "disable":
		cfg.Disable = value == "true" || value == "on"
	case "autoCloseNav":
		cfg.AutoCloseNav = value == "true" || value == "on"
	case "autoCloseSettings":
		cfg.AutoCloseSettings = value == "true" || value == "on"
	case "collapseHistory":
		cfg.CollapseHistory = value == "true" || value == "on"
	case "hideEmail":
		cfg.HideEmail = value == "true" || value == "on"
	}
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configModelCmd)
	configCmd.AddCommand(configToggleCmd)
	configCmd.AddCommand(configSetCmd)
}
