package suggest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLoginDescription(t *testing.T) {
	payload, err := LocalSource{}.Generate(context.Background(), "Créer une page de connexion urgente")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(payload.Title, "Créer"))
	assert.Equal(t, "urgente", payload.Priority)
	assert.Contains(t, payload.Tags, "authentification")
	assert.Contains(t, payload.Tags, GeneratedTag)
	assert.GreaterOrEqual(t, payload.EstimatedTime, 15)
}

func TestGenerateEnhancesDescription(t *testing.T) {
	payload, err := LocalSource{}.Generate(context.Background(), "Assigner à Marie la correction du endpoint de recherche")
	require.NoError(t, err)

	assert.Contains(t, payload.Description, "Assigné à: Marie")
	assert.Contains(t, payload.Description, "Type de tâche: Développement API")
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{
			"explicit marker wins",
			"title: refonte du menu principal. Avec plus de détails ensuite",
			"Refonte du menu principal",
		},
		{
			"action verb clause",
			"Il faudrait développer un export CSV des rapports. Voir avec l'équipe data",
			"Développer un export CSV des rapports.",
		},
		{
			"first sentence",
			"La page d'accueil plante au chargement. Cela arrive depuis hier",
			"La page d'accueil plante au chargement.",
		},
		{
			"first five words with ellipsis",
			"un deux trois quatre cinq six sept",
			"Un deux trois quatre cinq...",
		},
		{
			"short input kept whole",
			"un deux trois",
			"Un deux trois",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTitle(tt.description))
		})
	}
}

func TestDeterminePriority(t *testing.T) {
	tests := []struct {
		description string
		want        string
	}{
		{"corriger ce bug urgent", "urgente"},
		{"incident critique en production", "urgente"},
		{"tâche importante pour la démo", "haute"},
		{"un ajustement simple du style", "basse"},
		{"mettre à jour la page d'accueil", "moyenne"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, DeterminePriority(tt.description))
		})
	}
}

func TestEstimateTime(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        int
	}{
		{"explicit minutes", "estimation: 45 min pour cette tache", 45},
		{"explicit hours", "estimation: 2 h de travail", 120},
		{"explicit days", "estimation: 1 jour complet", 480},
		{"short description", "petit correctif css", 30},
		{"medium description", strings.Repeat("a", 60) + " avec quelques details en plus", 60},
		{"complex raises the bucket", "une refactorisation complexe du module de paiement et de facturation", 120},
		{"floor at fifteen", "un truc simple", 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateTime(tt.description))
		})
	}
}

func TestExtractTags(t *testing.T) {
	tags := ExtractTags("Créer une page de login avec test du backend et de la base de données")

	assert.Contains(t, tags, "test")
	assert.Contains(t, tags, "backend")
	assert.Contains(t, tags, "login")
	assert.Contains(t, tags, "authentification")
	assert.Contains(t, tags, "database")
	assert.Equal(t, GeneratedTag, tags[len(tags)-1])

	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		_, dup := seen[tag]
		assert.False(t, dup, "duplicate tag %q", tag)
		seen[tag] = struct{}{}
	}
}

func TestTruncateCountsRunes(t *testing.T) {
	assert.Equal(t, "été", truncate("été", 10))
	assert.Equal(t, "étéé...", truncate("étéété", 4))
}
