package i18n

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rcliao/madlab/internal/domain"
)

func TestParseLang(t *testing.T) {
	tests := map[string]struct {
		pref    string
		expLang domain.Lang
	}{
		"Empty defaults to Spanish":       {pref: "", expLang: domain.LangES},
		"Plain English":                   {pref: "en", expLang: domain.LangEN},
		"Regional English":                {pref: "en-GB", expLang: domain.LangEN},
		"POSIX locale":                    {pref: "en_US.UTF-8", expLang: domain.LangEN},
		"Regional Spanish":                {pref: "es-MX", expLang: domain.LangES},
		"Accept-Language prefers English": {pref: "fr-FR, en;q=0.8, es;q=0.5", expLang: domain.LangEN},
		"Unsupported language falls back": {pref: "ja", expLang: domain.LangES},
		"Unsupported list falls back":     {pref: "fr, de;q=0.9", expLang: domain.LangES},
		"Accept-Language order by weight": {pref: "es;q=0.4, de, en-US;q=0.7", expLang: domain.LangEN},
		"Garbage falls back":              {pref: "!!!", expLang: domain.LangES},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expLang, ParseLang(test.pref))
		})
	}
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "En progreso", Status(domain.LangES, domain.StatusInProgress))
	assert.Equal(t, "In progress", Status(domain.LangEN, domain.StatusInProgress))
	assert.Equal(t, "No iniciada", Status(domain.LangES, ""))
	assert.Equal(t, "Hard", Difficulty(domain.LangEN, 4))
	assert.Equal(t, "unknown.key", T(domain.LangEN, "unknown.key"))

	cal := domain.DefaultPhaseCalendar()
	assert.Equal(t, "Fase 2: Diseño", Phase(domain.LangES, cal[1]))
	assert.Equal(t, "Phase 2: Design", Phase(domain.LangEN, cal[1]))
	assert.Equal(t, "Phase 3", Phase(domain.LangEN, domain.Phase{Number: 3}))
}

func TestEveryStatusHasLabels(t *testing.T) {
	for _, s := range domain.Statuses {
		l, ok := labels["status."+string(s)]
		if assert.True(t, ok, s) {
			assert.NotEmpty(t, l.ES)
			assert.NotEmpty(t, l.EN)
		}
	}
}

func TestCollator(t *testing.T) {
	names := []string{"Óscar", "ana", "Zoe", "Luis"}
	sort.Slice(names, func(i, j int) bool {
		return Collator(domain.LangES).CompareString(names[i], names[j]) < 0
	})
	assert.Equal(t, []string{"ana", "Luis", "Óscar", "Zoe"}, names)
}
