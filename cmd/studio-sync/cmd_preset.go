package main

import (
	"fmt"
	"strconv"

	"github.com/betterstudio/studio-sync/internal/bus"
	"github.com/betterstudio/studio-sync/internal/mirror"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// openController wires a short-lived controller for one CLI mutation. The
// hub is dialed best-effort so live contexts hear the change immediately;
// without it they converge through the store watch.
func openController() (*mirror.Controller, func(), error) {
	set, err := loadSettings()
	if err != nil {
		return nil, nil, err
	}
	s, err := openStore(set)
	if err != nil {
		return nil, nil, err
	}

	logger := newLogger()
	var b bus.Bus
	client, err := bus.Dial(set.HubAddr, "cli", logger)
	if err == nil {
		b = client
	}

	ctrl, err := mirror.New(s, b, logger)
	if err != nil {
		if client != nil {
			client.Close()
		}
		s.Close()
		return nil, nil, err
	}
	cleanup := func() {
		ctrl.Close()
		if client != nil {
			client.Close()
		}
		s.Close()
	}
	return ctrl, cleanup, nil
}

func presetIndexArg(arg string, count int) (int, error) {
	idx, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("preset index must be a number, got %q", arg)
	}
	if idx < 0 || idx >= count {
		return 0, fmt.Errorf("preset index %d out of range (0-%d)", idx, count-1)
	}
	return idx, nil
}

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage configuration presets",
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		st := ctrl.State()
		for i, p := range st.Presets {
			marker := " "
			if i == st.ActivePresetIndex {
				marker = "*"
			}
			fmt.Printf("%s %d: %s (model %s, temp %g)\n",
				marker, i, p.Name, p.Config.Model, p.Config.Temperature)
		}
		return nil
	},
}

var presetAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Save the current configuration as a preset",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var name string
		if len(args) == 1 {
			name = args[0]
		} else {
			err := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Preset name").
						Value(&name),
				),
			).Run()
			if err != nil {
				return err
			}
		}
		if name == "" {
			return fmt.Errorf("preset name cannot be empty")
		}

		ctrl, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := ctrl.AddPreset(name); err != nil {
			return err
		}
		fmt.Printf("Saved preset %q\n", name)
		return nil
	},
}

var presetUseCmd = &cobra.Command{
	Use:   "use <index>",
	Short: "Activate a preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		idx, err := presetIndexArg(args[0], len(ctrl.State().Presets))
		if err != nil {
			return err
		}
		if err := ctrl.UsePreset(idx); err != nil {
			return err
		}
		fmt.Printf("Activated preset %q\n", ctrl.State().Presets[idx].Name)
		return nil
	},
}

var presetRenameCmd = &cobra.Command{
	Use:   "rename <index> <name>",
	Short: "Rename a preset",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		idx, err := presetIndexArg(args[0], len(ctrl.State().Presets))
		if err != nil {
			return err
		}
		return ctrl.RenamePreset(idx, args[1])
	},
}

var presetMoveCmd = &cobra.Command{
	Use:   "move <index> <up|down>",
	Short: "Reorder a preset",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		idx, err := presetIndexArg(args[0], len(ctrl.State().Presets))
		if err != nil {
			return err
		}
		var dir int
		switch args[1] {
		case "up":
			dir = -1
		case "down":
			dir = 1
		default:
			return fmt.Errorf("direction must be 'up' or 'down', got %q", args[1])
		}
		return ctrl.MovePreset(idx, dir)
	},
}

var presetDeleteCmd = &cobra.Command{
	Use:   "delete <index>",
	Short: "Delete a preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		idx, err := presetIndexArg(args[0], len(ctrl.State().Presets))
		if err != nil {
			return err
		}
		name := ctrl.State().Presets[idx].Name

		var confirmed bool
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Delete preset %q?", name)).
					Value(&confirmed),
			),
		).Run()
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := ctrl.DeletePreset(idx); err != nil {
			return err
		}
		fmt.Printf("Deleted preset %q\n", name)
		return nil
	},
}

func init() {
	presetCmd.AddCommand(presetListCmd)
	presetCmd.AddCommand(presetAddCmd)
	presetCmd.AddCommand(presetUseCmd)
	presetCmd.AddCommand(presetRenameCmd)
	presetCmd.AddCommand(presetMoveCmd)
	presetCmd.AddCommand(presetDeleteCmd)
}
