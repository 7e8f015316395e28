package config

const (
	defaultScheduleHour      = 9
	defaultPollInterval      = 1
	defaultQuitKey           = "q"
	defaultCaptureDir        = "~/.local/share/plantcam/captures"
	defaultLogDir            = "~/.local/share/plantcam/logs"
	defaultStateDir          = "~/.local/share/plantcam"
	defaultCameraCommand     = "nvgstcapture-1.0"
	defaultCameraMode        = 1
	defaultCameraResolution  = 3
	defaultCameraFilePrefix  = "smartfarm"
	defaultCameraTimeout     = 60
	defaultSMTPHost          = "smtp.gmail.com"
	defaultSMTPPort          = 587
	defaultMailTLS           = "mandatory"
	defaultMailTimeout       = 30
	defaultMailSubjectPrefix = "Smart farm daily report"
	defaultMailBodyIntro     = "This is this morning's state of the smart farm."
	defaultMetricsBind       = "127.0.0.1:9464"
	defaultRestartDelay      = 5
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 30
	defaultEnvFile           = "~/.config/plantcam/plantcam.env"
	defaultConfigPath        = "~/.config/plantcam/config.toml"
	defaultProjectConfigName = "plantcam.toml"
	envSMTPUsername          = "PLANTCAM_SMTP_USERNAME"
	envSMTPPassword          = "PLANTCAM_SMTP_PASSWORD"
	envMailRecipient         = "PLANTCAM_MAIL_RECIPIENT"
	envFileOverride          = "PLANTCAM_ENV_FILE"
	defaultHistoryEnabled    = true
	defaultMetricsEnabled    = false
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		EnvFile: defaultEnvFile,
		Schedule: Schedule{
			Hour:         defaultScheduleHour,
			PollInterval: defaultPollInterval,
		},
		Control: Control{
			QuitKey: defaultQuitKey,
		},
		Paths: Paths{
			CaptureDir: defaultCaptureDir,
			LogDir:     defaultLogDir,
			StateDir:   defaultStateDir,
		},
		Camera: Camera{
			Command:    defaultCameraCommand,
			Mode:       defaultCameraMode,
			Resolution: defaultCameraResolution,
			FilePrefix: defaultCameraFilePrefix,
			Timeout:    defaultCameraTimeout,
		},
		Mail: Mail{
			SMTPHost:      defaultSMTPHost,
			SMTPPort:      defaultSMTPPort,
			TLS:           defaultMailTLS,
			Timeout:       defaultMailTimeout,
			SubjectPrefix: defaultMailSubjectPrefix,
			BodyIntro:     defaultMailBodyIntro,
		},
		History: History{
			Enabled: defaultHistoryEnabled,
		},
		Metrics: Metrics{
			Enabled: defaultMetricsEnabled,
			Bind:    defaultMetricsBind,
		},
		Supervisor: Supervisor{
			RestartDelay: defaultRestartDelay,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
