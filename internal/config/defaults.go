package config

const (
	defaultStagingDir       = "~/.local/share/reframe/staging"
	defaultLogDir           = "~/.local/share/reframe/logs"
	defaultAPIBind          = ":8000"
	defaultDatabaseHost     = "localhost"
	defaultDatabasePort     = 5432
	defaultDatabaseName     = "reframe"
	defaultDatabaseUser     = "reframe"
	defaultDatabaseSSLMode  = "disable"
	defaultPasswordEnv      = "REFRAME_DB_PASSWORD"
	defaultMaxOpenConns     = 8
	defaultMaxIdleConns     = 2
	defaultFFmpegBinary     = "ffmpeg"
	defaultFFprobeBinary    = "ffprobe"
	defaultAspectWidth      = 9
	defaultAspectHeight     = 16
	defaultSceneWorkers     = 4
	defaultAzureConnEnv     = "AZURE_STORAGE_CONNECTION_STRING"
	defaultUploadConc       = 5
	defaultUploadTimeout    = 600
	defaultCacheDir         = "~/.local/share/reframe/cache/scenes"
	defaultCacheMaxGiB      = 2
	defaultQueuePollSecs    = 5
	defaultErrorRetrySecs   = 10
	defaultHeartbeatSecs    = 15
	defaultHeartbeatTimeout = 120
	defaultLanes            = 2
	defaultNotifyTimeout    = 10
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Database: Database{
			Host:        defaultDatabaseHost,
			Port:        defaultDatabasePort,
			Name:        defaultDatabaseName,
			User:        defaultDatabaseUser,
			PasswordEnv: defaultPasswordEnv,
			SSLMode:     defaultDatabaseSSLMode,
			MaxOpenConn: defaultMaxOpenConns,
			MaxIdleConn: defaultMaxIdleConns,
		},
		Render: Render{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			AspectWidth:   defaultAspectWidth,
			AspectHeight:  defaultAspectHeight,
			SceneWorkers:  defaultSceneWorkers,
		},
		Azure: Azure{
			ConnectionStringEnv: defaultAzureConnEnv,
			UploadConcurrency:   defaultUploadConc,
			TimeoutSeconds:      defaultUploadTimeout,
		},
		DownloadCache: DownloadCache{
			Enabled: false,
			Dir:     defaultCacheDir,
			MaxGiB:  defaultCacheMaxGiB,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollSecs,
			ErrorRetryInterval: defaultErrorRetrySecs,
			HeartbeatInterval:  defaultHeartbeatSecs,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
			Lanes:              defaultLanes,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Completed:      true,
			Failed:         true,
			Batch:          true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
