package session

import (
	"strings"

	"github.com/atinyakov/donorlink/internal/models"
)

var roleLabels = map[models.Role]string{
	models.RoleDonor:    "Donor",
	models.RolePatient:  "Patient",
	models.RoleHospital: "Hospital",
}

// FormatRoles turns the profile's comma-joined role tokens into a display
// label. Known tokens match case-insensitively after trimming; unknown ones
// pass through verbatim. Multiple roles are joined with " & ".
func FormatRoles(raw string) string {
	var labels []string
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if label, ok := roleLabels[models.Role(strings.ToLower(token))]; ok {
			labels = append(labels, label)
			continue
		}
		labels = append(labels, token)
	}
	return strings.Join(labels, " & ")
}
