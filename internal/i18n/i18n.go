// Package i18n holds the Spanish and English labels used by views and
// exports, and resolves user language preferences.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/rcliao/madlab/internal/domain"
)

var (
	supported = []domain.Lang{domain.LangES, domain.LangEN}
	matcher   = language.NewMatcher([]language.Tag{language.Spanish, language.English})
)

// ParseLang resolves a language preference such as "en", "es-MX",
// "en_US.UTF-8" or an Accept-Language list. A list is walked in preference
// order and the first language that is Spanish or English wins. Anything
// unrecognized falls back to Spanish.
func ParseLang(pref string) domain.Lang {
	pref = strings.TrimSpace(pref)
	if i := strings.IndexAny(pref, ".@"); i >= 0 {
		pref = pref[:i]
	}
	pref = strings.ReplaceAll(pref, "_", "-")
	if pref == "" {
		return domain.LangES
	}

	tags, _, err := language.ParseAcceptLanguage(pref)
	if err != nil || len(tags) == 0 {
		return domain.LangES
	}
	for _, t := range tags {
		if _, idx, conf := matcher.Match(t); conf >= language.High {
			return supported[idx]
		}
	}
	return domain.LangES
}

func tag(lang domain.Lang) language.Tag {
	if lang == domain.LangEN {
		return language.English
	}
	return language.Spanish
}

// Collator returns a collator that orders strings the way a reader of lang
// expects, ignoring case.
func Collator(lang domain.Lang) *collate.Collator {
	return collate.New(tag(lang), collate.IgnoreCase)
}

// T returns the label for key. Unknown keys are returned unchanged.
func T(lang domain.Lang, key string) string {
	if l, ok := labels[key]; ok {
		return l.In(lang)
	}
	return key
}

// Status returns the label of a task status.
func Status(lang domain.Lang, s domain.TaskStatus) string {
	if s == "" {
		s = domain.StatusNotStarted
	}
	return T(lang, "status."+string(s))
}

// Phase returns a label such as "Fase 2: Diseño".
func Phase(lang domain.Lang, p domain.Phase) string {
	name := p.Name.In(lang)
	if name == "" {
		return fmt.Sprintf("%s %d", T(lang, "phase"), p.Number)
	}
	return fmt.Sprintf("%s %d: %s", T(lang, "phase"), p.Number, name)
}

// Difficulty returns the label of a difficulty level.
func Difficulty(lang domain.Lang, d int) string {
	return T(lang, fmt.Sprintf("difficulty.%d", d))
}

var labels = map[string]domain.LocalizedText{
	"status.not-started": {ES: "No iniciada", EN: "Not started"},
	"status.planning":    {ES: "Planificación", EN: "Planning"},
	"status.in-progress": {ES: "En progreso", EN: "In progress"},
	"status.review":      {ES: "En revisión", EN: "In review"},
	"status.completed":   {ES: "Completada", EN: "Completed"},

	"difficulty.1": {ES: "Muy fácil", EN: "Very easy"},
	"difficulty.2": {ES: "Fácil", EN: "Easy"},
	"difficulty.3": {ES: "Media", EN: "Medium"},
	"difficulty.4": {ES: "Difícil", EN: "Hard"},
	"difficulty.5": {ES: "Muy difícil", EN: "Very hard"},

	"phase":      {ES: "Fase", EN: "Phase"},
	"unassigned": {ES: "Sin asignar", EN: "Unassigned"},
	"no-section": {ES: "Sin sección", EN: "No section"},
	"all-tasks":  {ES: "Todas las tareas", EN: "All tasks"},
	"team":       {ES: "Todo el equipo", EN: "Whole team"},

	"group.none":     {ES: "Sin agrupar", EN: "Ungrouped"},
	"group.phase":    {ES: "Fase", EN: "Phase"},
	"group.assignee": {ES: "Responsable", EN: "Assignee"},
	"group.section":  {ES: "Sección", EN: "Section"},
	"group.status":   {ES: "Estado", EN: "Status"},

	"column.id":         {ES: "ID", EN: "ID"},
	"column.name":       {ES: "Tarea", EN: "Task"},
	"column.assignee":   {ES: "Responsable", EN: "Assignee"},
	"column.hours":      {ES: "Horas", EN: "Hours"},
	"column.difficulty": {ES: "Dificultad", EN: "Difficulty"},
	"column.phase":      {ES: "Fase", EN: "Phase"},
	"column.section":    {ES: "Sección", EN: "Section"},
	"column.deps":       {ES: "Dependencias", EN: "Dependencies"},
	"column.status":     {ES: "Estado", EN: "Status"},
	"column.start":      {ES: "Inicio", EN: "Start"},
	"column.end":        {ES: "Fin", EN: "End"},
	"column.progress":   {ES: "Progreso", EN: "Progress"},
	"column.critical":   {ES: "Crítica", EN: "Critical"},

	"title.tasks":    {ES: "Tareas", EN: "Tasks"},
	"title.gantt":    {ES: "Diagrama de Gantt", EN: "Gantt chart"},
	"title.critical": {ES: "Ruta crítica", EN: "Critical path"},
	"title.stages":   {ES: "Etapas en paralelo", EN: "Parallel stages"},
	"title.summary":  {ES: "Resumen del proyecto", EN: "Project summary"},
	"title.report":   {ES: "Plan MADLAB", EN: "MADLAB plan"},

	"summary.tasks":      {ES: "Tareas", EN: "Tasks"},
	"summary.hours":      {ES: "Horas", EN: "Hours"},
	"summary.completion": {ES: "Avance", EN: "Completion"},
	"summary.critical":   {ES: "Tareas críticas", EN: "Critical tasks"},
	"summary.overdue":    {ES: "Tareas atrasadas", EN: "Overdue tasks"},
	"summary.span":       {ES: "Duración", EN: "Span"},
	"summary.by-status":  {ES: "Por estado", EN: "By status"},
	"summary.by-phase":   {ES: "Por fase", EN: "By phase"},
	"summary.by-person":  {ES: "Por responsable", EN: "By assignee"},
	"summary.by-week":    {ES: "Carga semanal", EN: "Weekly load"},
	"summary.week":       {ES: "Semana", EN: "Week"},

	"stage.day": {ES: "Día", EN: "Day"},

	"warning.cycle":              {ES: "Ciclo de dependencias", EN: "Dependency cycle"},
	"warning.unknown-dependency": {ES: "Dependencia desconocida", EN: "Unknown dependency"},
	"warning.compressed":         {ES: "Tarea comprimida al final de la fase", EN: "Task compressed to phase end"},
	"warning.unknown-phase":      {ES: "Fase desconocida", EN: "Unknown phase"},

	"yes":     {ES: "Sí", EN: "Yes"},
	"no":      {ES: "No", EN: "No"},
	"days":    {ES: "días", EN: "days"},
	"legend":  {ES: "Leyenda", EN: "Legend"},
	"today":   {ES: "Hoy", EN: "Today"},
	"done":    {ES: "Hecho", EN: "Done"},
	"pending": {ES: "Pendiente", EN: "Pending"},
	"no-data": {ES: "Sin tareas", EN: "No tasks"},
}
