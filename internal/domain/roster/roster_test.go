package roster

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"salonbooking/internal/domain/appointment"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const today = "2025-06-10"

func row(id, customer, staff, date, tm string, status appointment.Status) appointment.Appointment {
	return appointment.Appointment{
		ID:           id,
		CustomerID:   "c-" + id,
		CustomerName: customer,
		StaffID:      staff,
		StaffName:    map[string]string{"A": "Ahmet Makas", "B": "Mehmet Tarak"}[staff],
		ServiceName:  "Premium Saç Kesimi",
		Date:         date,
		Time:         tm,
		Status:       status,
	}
}

func fixtureSet() []appointment.Appointment {
	return []appointment.Appointment{
		row("1", "Can Demir", "A", "2025-06-12", "15:00", appointment.StatusConfirmed),
		row("2", "Ayşe Yılmaz", "B", "2025-06-10", "11:00", appointment.StatusConfirmed),
		row("3", "Veli Kaya", "A", "2025-06-12", "10:00", appointment.StatusConfirmed),
		row("4", "Can Demir", "A", "2025-06-09", "12:00", appointment.StatusCompleted),
		row("5", "Zeynep Ak", "B", "2025-06-10", "10:30", appointment.StatusPending),
		row("6", "Ali Er", "A", "2025-06-01", "10:00", appointment.StatusCancelled),
		row("7", "Selin Su", "B", "2025-06-10", "19:30", appointment.StatusConfirmed),
	}
}

func ids(groups []Group) [][]string {
	out := make([][]string, 0, len(groups))
	for _, g := range groups {
		var day []string
		for _, a := range g.Appointments {
			day = append(day, a.ID)
		}
		out = append(out, day)
	}
	return out
}

func dates(groups []Group) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Date)
	}
	return out
}

func TestBuild_ConfirmedUpcomingIsDeterministic(t *testing.T) {
	f := Filter{Status: "confirmed", Window: WindowUpcoming}

	first := Build(fixtureSet(), f, today)
	assert.Equal(t, []string{"2025-06-10", "2025-06-12"}, dates(first))
	assert.Equal(t, [][]string{{"2", "7"}, {"3", "1"}}, ids(first))

	// input order must not matter
	set := fixtureSet()
	for i, j := 0, len(set)-1; i < j; i, j = i+1, j-1 {
		set[i], set[j] = set[j], set[i]
	}
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Build(set, f, today))
	}
}

func TestBuild_Windows(t *testing.T) {
	past := Build(fixtureSet(), Filter{Window: WindowPast}, today)
	assert.Equal(t, []string{"2025-06-09", "2025-06-01"}, dates(past), "past runs newest first")

	all := Build(fixtureSet(), Filter{Window: WindowAll}, today)
	assert.Equal(t, []string{"2025-06-01", "2025-06-09", "2025-06-10", "2025-06-12"}, dates(all))

	upcoming := Build(fixtureSet(), Filter{}, today)
	assert.Equal(t, []string{"2025-06-10", "2025-06-12"}, dates(upcoming), "today counts as upcoming")
	assert.Equal(t, []string{"5", "2", "7"}, ids(upcoming)[0])
}

func TestBuild_TextStaffAndStatusFilters(t *testing.T) {
	byName := Build(fixtureSet(), Filter{Query: "  can ", Window: WindowAll}, today)
	assert.Equal(t, [][]string{{"4"}, {"1"}}, ids(byName))

	byStaffName := Build(fixtureSet(), Filter{Query: "TARAK", Window: WindowAll}, today)
	assert.Equal(t, [][]string{{"5", "2", "7"}}, ids(byStaffName))

	byService := Build(fixtureSet(), Filter{Query: "saç", Window: WindowAll}, today)
	assert.Len(t, byService, 4)

	byStaff := Build(fixtureSet(), Filter{StaffID: "B", Status: "all", Window: WindowAll}, today)
	assert.Equal(t, [][]string{{"5", "2", "7"}}, ids(byStaff))

	none := Build(fixtureSet(), Filter{Status: "pending", StaffID: "A", Window: WindowAll}, today)
	assert.Empty(t, none)
}

func TestFilter_Validate(t *testing.T) {
	assert.NoError(t, Filter{Status: "all"}.Validate())
	assert.NoError(t, Filter{Status: "cancelled", Window: WindowPast}.Validate())
	assert.ErrorIs(t, Filter{Status: "archived"}.Validate(), ErrValidation)
	assert.ErrorIs(t, Filter{Window: "someday"}.Validate(), ErrValidation)

	err := Filter{Status: "archived", Query: strings.Repeat("x", 101)}.Validate()
	assert.ErrorIs(t, err, ErrValidation)
	assert.EqualError(t, err, "validation error: query max, status oneof")

	w, err := ParseWindow(" PAST ")
	require.NoError(t, err)
	assert.Equal(t, WindowPast, w)
}

func TestSummarize(t *testing.T) {
	set := fixtureSet()
	set[0].PendingChange = &appointment.PendingChange{ProposedBy: appointment.ProposedByCustomer, NewDate: "2025-06-13", NewTime: "10:00", Status: appointment.ChangePending}
	set[2].PendingChange = &appointment.PendingChange{ProposedBy: appointment.ProposedByCustomer, NewDate: "2025-06-13", NewTime: "11:00", Status: appointment.ChangeRejected}
	set[1].PendingChange = &appointment.PendingChange{ProposedBy: appointment.ProposedByAdmin, NewDate: "2025-06-13", NewTime: "12:00", Status: appointment.ChangePending}
	set = append(set, row("8", "İptal", "A", today, "13:00", appointment.StatusCancelled))

	s := Summarize(set, today)
	assert.Equal(t, 8, s.Total)
	assert.Equal(t, 1, s.PendingChangeRequests)
	require.Len(t, s.ChangeRequests, 1)
	assert.Equal(t, "1", s.ChangeRequests[0].ID)
	assert.Equal(t, 3, s.Today)
}

type versionedSet struct {
	set     []appointment.Appointment
	version uint64
	reads   int
}

func (v *versionedSet) Snapshot() []appointment.Appointment {
	v.reads++
	return v.set
}

func (v *versionedSet) Version() uint64 { return v.version }

func TestView_RebuildsOnlyAfterChange(t *testing.T) {
	src := &versionedSet{set: fixtureSet(), version: 1}
	v := NewView(src)
	v.now = func() time.Time { return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC) }

	f := Filter{Window: WindowUpcoming}
	first := v.Groups(f)
	v.Groups(f)
	assert.Equal(t, 1, src.reads)

	src.set = append(src.set, row("9", "Yeni", "A", "2025-06-11", "10:00", appointment.StatusPending))
	src.version++

	second := v.Groups(f)
	assert.Equal(t, 2, src.reads)
	assert.Len(t, second, len(first)+1)
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	v := NewView(&versionedSet{set: fixtureSet(), version: 1})
	v.now = func() time.Time { return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC) }
	r := gin.New()
	NewHandler(v).RegisterManageRoutes(r.Group("/manage"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/manage/appointments?status=confirmed&window=upcoming", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Count  int `json:"count"`
			Groups []struct {
				Date string `json:"date"`
			} `json:"groups"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Data.Count)
	require.Len(t, body.Data.Groups, 2)
	assert.Equal(t, "2025-06-10", body.Data.Groups[0].Date)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/manage/appointments?window=later", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/manage/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":7`)
	assert.Contains(t, w.Body.String(), `"today":3`)
}
