package config

const (
	defaultConfigPath = "~/.config/captioner/config.toml"
	defaultWorkDir    = "~/.local/share/captioner/work"
	defaultOutputDir  = "~/.local/share/captioner/output"
	defaultStateDir   = "~/.local/state/captioner"
	defaultLogDir     = "~/.local/state/captioner/logs"

	defaultWhisperXModel = "large-v3"
	defaultVADMethod     = "silero"

	defaultSampleRate   = 16000
	defaultWindowMS     = 30
	defaultSensitivity  = 1.5
	defaultVADMode      = 2
	defaultVADFrameMS   = 30
	defaultVoicedRatio  = 0.3
	defaultGuardGap     = 0.1
	defaultMaxWordSecs  = 5.0
	defaultMaxWords     = 5
	defaultGapThreshold = 0.5

	defaultAnimationStyle = "none"
	defaultFadeDuration   = 0.5
	defaultColorFade      = 0.1
	defaultBaseColor      = "white"
	defaultActiveColor    = "lime"

	defaultFont        = "Arial"
	defaultFontSize    = 70.0
	defaultStrokeColor = "black"
	defaultStrokeWidth = 4.0
	defaultTextCase    = "none"
	defaultWordSpacing = 20.0
	defaultPosition    = "bottom"
	defaultMargin      = 50.0
	defaultFrameWidth  = 1920
	defaultFrameHeight = 1080

	defaultFPS          = 30.0
	defaultWorkers      = 4
	defaultCacheEntries = 4096

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
		},
		Transcription: Transcription{
			Enabled:   true,
			Model:     defaultWhisperXModel,
			VADMethod: defaultVADMethod,
		},
		Audio: Audio{
			SampleRate:  defaultSampleRate,
			WindowMS:    defaultWindowMS,
			Sensitivity: defaultSensitivity,
			VADMode:     defaultVADMode,
			VADFrameMS:  defaultVADFrameMS,
		},
		Refinement: Refinement{
			Enabled:         true,
			VoicedRatio:     defaultVoicedRatio,
			GuardGap:        defaultGuardGap,
			MaxWordDuration: defaultMaxWordSecs,
		},
		Grouping: Grouping{
			MaxWords:     defaultMaxWords,
			GapThreshold: defaultGapThreshold,
		},
		Animation: Animation{
			Style:        defaultAnimationStyle,
			FadeDuration: defaultFadeDuration,
			ColorFade:    defaultColorFade,
			BaseColor:    defaultBaseColor,
			ActiveColor:  defaultActiveColor,
		},
		Style: Style{
			Font:        defaultFont,
			FontSize:    defaultFontSize,
			StrokeColor: defaultStrokeColor,
			StrokeWidth: defaultStrokeWidth,
			TextCase:    defaultTextCase,
			WordSpacing: defaultWordSpacing,
			Position:    defaultPosition,
			Margin:      defaultMargin,
			FrameWidth:  defaultFrameWidth,
			FrameHeight: defaultFrameHeight,
		},
		Render: Render{
			FPS:          defaultFPS,
			Workers:      defaultWorkers,
			CacheEntries: defaultCacheEntries,
			Formats:      []string{"ass", "srt"},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
