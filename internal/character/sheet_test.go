package character

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSheet_Validate(t *testing.T) {
	tests := []struct {
		name    string
		sheet   Sheet
		wantErr bool
	}{
		{"valid", Sheet{Name: "Zird", Owner: "Joao", FatePoints: FatePoints{Current: 3, Max: 3}}, false},
		{"missing owner", Sheet{Name: "Zird"}, true},
		{"negative fate points", Sheet{Owner: "Joao", FatePoints: FatePoints{Current: -1, Max: 3}}, true},
		{"current above max", Sheet{Owner: "Joao", FatePoints: FatePoints{Current: 5, Max: 3}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sheet.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSheet_NormalizeThenValidate(t *testing.T) {
	s := Sheet{Name: "  Zird ", Owner: "   "}
	s.Normalize()
	require.Equal(t, "Zird", s.Name)
	require.Error(t, s.Validate())
}

func TestDefaultSkills(t *testing.T) {
	skills := DefaultSkills()
	require.Contains(t, skills, "Shoot")
	require.Len(t, skills, len(defaultSkillNames))

	v, err := skills.Get("Shoot")
	require.NoError(t, err)
	require.Equal(t, 0, v)
}

func TestSkills_Operations(t *testing.T) {
	skills := DefaultSkills()

	skills.Add("Swordsmanship")
	require.NoError(t, skills.Increment("Swordsmanship"))
	v, err := skills.Get("Swordsmanship")
	require.NoError(t, err)
	require.Equal(t, 1, v)

	require.NoError(t, skills.Increment("Shoot"))
	require.NoError(t, skills.Increment("Shoot"))
	v, _ = skills.Get("Shoot")
	require.Equal(t, 2, v)

	skills.Remove("Swordsmanship")
	_, err = skills.Get("Swordsmanship")
	require.ErrorIs(t, err, ErrUnknownSkill)
	require.ErrorIs(t, skills.Increment("Swordsmanship"), ErrUnknownSkill)
}
