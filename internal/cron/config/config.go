package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Mailbox email sync, every 15 minutes
	CronScheduleEmailSync string `env:"CRON_SCHEDULE_EMAIL_SYNC" envDefault:"0 */15 * * * *"`
}
