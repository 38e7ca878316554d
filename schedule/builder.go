package schedule

// DefinitionBuilder holds a schedule definition to build
type DefinitionBuilder struct {
	d Definition
}

// New returns a new DefinitionBuilder
func New() (db *DefinitionBuilder) {
	return new(DefinitionBuilder)
}

// WithInterval sets the interval and unit of the schedule (i.e. every 5 minutes)
func (db *DefinitionBuilder) WithInterval(interval uint64, unit string) *DefinitionBuilder {
	db.d.Interval = interval
	db.d.Unit = unit
	return db
}

// Every sets the schedule to run weekly on the given weekday
func (db *DefinitionBuilder) Every(weekday string) *DefinitionBuilder {
	db.d.Interval = 1
	db.d.Weekday = weekday
	return db
}

// AtTime sets the time of day (i.e. "10:30") of the schedule
func (db *DefinitionBuilder) AtTime(atTime string) *DefinitionBuilder {
	db.d.AtTime = atTime
	return db
}

// Build returns the schedule definition
func (db *DefinitionBuilder) Build() Definition {
	return db.d
}
