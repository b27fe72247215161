package domain

// AppState is the application state a session works against: the task set,
// the active filter, the Gantt configuration and the phase calendar. It is
// passed explicitly to services instead of living in a package global.
type AppState struct {
	Tasks  []Task
	Filter TaskFilter
	Gantt  GanttConfig
	Phases PhaseCalendar
	Lang   Lang
}

func NewAppState() *AppState {
	return &AppState{
		Gantt:  DefaultGanttConfig(),
		Phases: DefaultPhaseCalendar(),
		Lang:   LangES,
	}
}
