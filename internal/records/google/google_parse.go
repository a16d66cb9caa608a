package google

import (
	"fmt"
	"strings"
	"time"

	"github.com/Kavalar/by-kalancha/internal/core"
)

var appointmentHeaders = []string{"id", "status", "completedAt", "paymentType", "finalPrice", "serviceId"}

// parseAppointments converts the Appointments sheet into completed
// appointments inside [start, end]. The first row must name the columns.
// Timestamps without an offset are read in start's location. Rows with an
// unreadable completion time are skipped; a matched row with an unreadable
// price fails the whole read.
func parseAppointments(values [][]interface{}, start, end time.Time) ([]core.Appointment, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	cols := make(map[string]int, len(appointmentHeaders))
	var missing []string
	for _, h := range appointmentHeaders {
		idx := indexOf(headers, h)
		if idx == -1 {
			missing = append(missing, h)
		}
		cols[h] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected appointments header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	var out []core.Appointment
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if !strings.EqualFold(safeGet(row, cols["status"]), core.StatusCompleted) {
			continue
		}
		completedAt, err := parseTimestamp(safeGet(row, cols["completedAt"]), start.Location())
		if err != nil {
			continue
		}
		if completedAt.Before(start) || completedAt.After(end) {
			continue
		}
		price, err := core.ParseAmount(safeGet(row, cols["finalPrice"]))
		if err != nil {
			return nil, fmt.Errorf("appointment %s (row %d): %w", safeGet(row, cols["id"]), i+1, err)
		}
		out = append(out, core.Appointment{
			ID:          safeGet(row, cols["id"]),
			Status:      core.StatusCompleted,
			CompletedAt: completedAt,
			PaymentType: core.ParsePaymentType(safeGet(row, cols["paymentType"])),
			FinalPrice:  price,
			ServiceID:   safeGet(row, cols["serviceId"]),
		})
	}
	core.SortByCompletion(out)
	return out, nil
}

func parseServices(values [][]interface{}) ([]core.Service, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	colID, colName := indexOf(headers, "id"), indexOf(headers, "name")
	if colID == -1 || colName == -1 {
		return nil, fmt.Errorf("unexpected services header: got headers=%v", headers)
	}
	var out []core.Service
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		id := safeGet(row, colID)
		if id == "" {
			continue
		}
		out = append(out, core.Service{ID: id, Name: safeGet(row, colName)})
	}
	return out, nil
}

// parseRecipients reads the "recipients" column of the Settings sheet. A
// sheet without that column has no settings record.
func parseRecipients(values [][]interface{}) ([]string, error) {
	if len(values) == 0 {
		return nil, core.ErrSettingsNotFound
	}
	col := indexOf(toStrings(values[0]), "recipients")
	if col == -1 {
		return nil, core.ErrSettingsNotFound
	}
	out := []string{}
	for i := 1; i < len(values); i++ {
		if addr := safeGet(toStrings(values[i]), col); addr != "" {
			out = append(out, addr)
		}
	}
	return out, nil
}

var localTimestampLayouts = []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02 15:04"}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localTimestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
