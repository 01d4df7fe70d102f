package reconcile

// Selectors is the engine's map of the target application's markup. All
// of it is uncontrolled third-party DOM, so every entry is a best guess
// that is allowed to miss; the engine degrades per-control, never
// whole-pass.
type Selectors struct {
	// SyncMarker is the document marker set while an apply pass runs.
	SyncMarker string
	// SuppressionStyleID keys the injected style block hiding overlay
	// flicker during a pass.
	SuppressionStyleID string
	// OverlayContainers are hidden under the sync marker.
	OverlayContainers []string
	// RunSettings is the settings drawer, suppressed and auto-closed only
	// when the preference allows.
	RunSettings         string
	RunSettingsExpanded string

	// ModelSelector is the button showing the current model; ModelOption
	// matches the entries of the opened picker.
	ModelSelector string
	ModelOption   string

	// LabelNodes are candidates for parameter label text; SliderInput is
	// the numeric input owned by a labelled slider; SelectControl and
	// Option drive enumerated dropdowns.
	LabelNodes    string
	SliderInput   string
	SelectControl string
	Option        string

	// SchemaEditButton opens the schema editor near a tool toggle; Modal
	// and ModalTextarea locate the editor dialog.
	SchemaEditButton string
	Modal            string
	ModalTextarea    string

	// InstructionsTrigger opens the system instructions panel;
	// InstructionsTextarea is its editor.
	InstructionsTrigger  string
	InstructionsTextarea string

	// CloseButtons, Backdrop and OverlayPane drive the bounded
	// close-all-panels pass. SettingsCloseButtons are added only when
	// auto-closing the settings drawer is allowed.
	CloseButtons         []string
	SettingsCloseButtons []string
	Backdrop             string
	OverlayPane          string

	// Sidebar entries mirror the watchdog's view of the navigation rail.
	Sidebar        []string
	SidebarToggle  string
	CollapsedWidth int

	// HistoryButton marks collapsible conversation-history sections.
	HistoryButton string

	// HideEmailMarker gates the email-masking CSS.
	HideEmailMarker string
}

// DefaultSelectors matches the markup of the driven application.
func DefaultSelectors() Selectors {
	return Selectors{
		SyncMarker:         "bas-syncing",
		SuppressionStyleID: "bas-suppression",
		OverlayContainers: []string{
			".cdk-overlay-container",
			".cdk-overlay-backdrop",
			".cdk-global-overlay-wrapper",
			"ms-system-instructions",
		},
		RunSettings:         "ms-run-settings",
		RunSettingsExpanded: "ms-run-settings.expanded",

		ModelSelector: "button.model-selector-card",
		ModelOption:   `mat-list-item, [role="option"]`,

		LabelNodes:    ".label-wrapper, span, label",
		SliderInput:   "input.slider-number-input",
		SelectControl: "mat-select, .mat-mdc-select, select",
		Option:        `mat-option, [role="option"]`,

		SchemaEditButton: "button.ms-button-borderless, .edit-function-declarations-button",
		Modal:            "mat-dialog-container",
		ModalTextarea:    "textarea:not(.monaco-mouse-cursor-text)",

		InstructionsTrigger:  `button[aria-label="System instructions"]`,
		InstructionsTextarea: `textarea[aria-label="System instructions"]`,

		CloseButtons: []string{
			`button[aria-label="Close panel"]`,
			`button[aria-label="close"]`,
			`button[aria-label="Close"]`,
			`ms-system-instructions button[aria-label*="Close"]`,
		},
		SettingsCloseButtons: []string{
			`button[aria-label="Close run settings panel"]`,
		},
		Backdrop:    ".cdk-overlay-backdrop",
		OverlayPane: ".cdk-overlay-pane",

		Sidebar:        []string{"ms-navbar", ".nav-content", ".v3-left-nav"},
		SidebarToggle:  `button[aria-label="Toggle navigation menu"]`,
		CollapsedWidth: 100,

		HistoryButton: ".history-button",

		HideEmailMarker: "bas-hide-email",
	}
}
