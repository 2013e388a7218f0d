package logger

// Component-specific logger functions

// Reminder returns a logger for reminder lifecycle operations
func Reminder() Logger {
	return WithField("component", "reminder")
}

// Todo returns a logger for todo operations
func Todo() Logger {
	return WithField("component", "todo")
}

// Calendar returns a logger for calendar aggregation operations
func Calendar() Logger {
	return WithField("component", "calendar")
}

// Store returns a logger for persistence operations
func Store() Logger {
	return WithField("component", "store")
}

// HTTP returns a logger for transport operations
func HTTP() Logger {
	return WithField("component", "http")
}

// Migration returns a logger for schema migration operations
func Migration() Logger {
	return WithField("component", "migration")
}

// CLI returns a logger for CLI operations
func CLI() Logger {
	return WithField("component", "cli")
}
