package model

// Models returns every persisted model in migration order
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Bootcamp{},
		&Course{},
		&JWTTokenBlacklist{},
		&CronJobLog{},
	}
}
