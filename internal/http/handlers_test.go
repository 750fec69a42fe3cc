package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/roombooking/internal/application"
)

type bookingServiceStub struct {
	booking     application.Booking
	bookings    []application.Booking
	occurrences []application.Occurrence
	err         error

	createParams application.CreateBookingParams
	editParams   application.EditBookingParams
	cancelledID  string
	listParams   application.ListOccurrencesParams
}

func (s *bookingServiceStub) CreateBooking(ctx context.Context, params application.CreateBookingParams) (application.Booking, error) {
	s.createParams = params
	if s.err != nil {
		return application.Booking{}, s.err
	}
	return s.booking, nil
}

func (s *bookingServiceStub) EditBooking(ctx context.Context, params application.EditBookingParams) (application.Booking, error) {
	s.editParams = params
	if s.err != nil {
		return application.Booking{}, s.err
	}
	return s.booking, nil
}

func (s *bookingServiceStub) CancelBooking(ctx context.Context, principal application.Principal, bookingID string) error {
	s.cancelledID = bookingID
	return s.err
}

func (s *bookingServiceStub) ListOccurrences(ctx context.Context, params application.ListOccurrencesParams) ([]application.Occurrence, error) {
	s.listParams = params
	if s.err != nil {
		return nil, s.err
	}
	return s.occurrences, nil
}

func (s *bookingServiceStub) History(ctx context.Context, principal application.Principal) ([]application.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.bookings, nil
}

type recurringServiceStub struct {
	rule application.RecurringRule
	err  error

	cancelledRuleID string
	cancelledDate   string
}

func (s *recurringServiceStub) CreateRule(ctx context.Context, params application.CreateRuleParams) (application.RecurringRule, error) {
	if s.err != nil {
		return application.RecurringRule{}, s.err
	}
	return s.rule, nil
}

func (s *recurringServiceStub) CancelOccurrence(ctx context.Context, principal application.Principal, ruleID, date string) error {
	s.cancelledRuleID = ruleID
	s.cancelledDate = date
	return s.err
}

func (s *recurringServiceStub) CancelSeries(ctx context.Context, principal application.Principal, ruleID string) error {
	s.cancelledRuleID = ruleID
	return s.err
}

type roomServiceStub struct {
	room  application.Room
	rooms []application.Room
	err   error
}

func (s *roomServiceStub) CreateRoom(ctx context.Context, principal application.Principal, input application.RoomInput) (application.Room, error) {
	if s.err != nil {
		return application.Room{}, s.err
	}
	return s.room, nil
}

func (s *roomServiceStub) UpdateRoom(ctx context.Context, principal application.Principal, roomID string, input application.RoomInput) (application.Room, error) {
	if s.err != nil {
		return application.Room{}, s.err
	}
	return s.room, nil
}

func (s *roomServiceStub) ToggleRoomDisabled(ctx context.Context, principal application.Principal, roomID string) (application.Room, error) {
	if s.err != nil {
		return application.Room{}, s.err
	}
	return s.room, nil
}

func (s *roomServiceStub) ListRooms(ctx context.Context, principal application.Principal, includeDisabled bool) ([]application.Room, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rooms, nil
}

type blockedServiceStub struct {
	blocked application.BlockedRange
	ranges  []application.BlockedRange
	err     error

	deletedID string
}

func (s *blockedServiceStub) CreateBlockedRange(ctx context.Context, principal application.Principal, input application.BlockedRangeInput) (application.BlockedRange, error) {
	if s.err != nil {
		return application.BlockedRange{}, s.err
	}
	return s.blocked, nil
}

func (s *blockedServiceStub) DeleteBlockedRange(ctx context.Context, principal application.Principal, id string) error {
	s.deletedID = id
	return s.err
}

func (s *blockedServiceStub) ListBlockedRanges(ctx context.Context, roomID string, from, to time.Time) ([]application.BlockedRange, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.ranges, nil
}

type settingsServiceStub struct {
	settings application.Settings
	err      error
}

func (s *settingsServiceStub) GetSettings(ctx context.Context) (application.Settings, error) {
	if s.err != nil {
		return application.Settings{}, s.err
	}
	return s.settings, nil
}

func (s *settingsServiceStub) UpdateSettings(ctx context.Context, principal application.Principal, input application.Settings) (application.Settings, error) {
	if s.err != nil {
		return application.Settings{}, s.err
	}
	return input, nil
}

type serverStubs struct {
	bookings  *bookingServiceStub
	recurring *recurringServiceStub
	rooms     *roomServiceStub
	blocked   *blockedServiceStub
	settings  *settingsServiceStub
}

func newTestServer(t *testing.T) (http.Handler, *serverStubs) {
	t.Helper()

	stubs := &serverStubs{
		bookings:  &bookingServiceStub{},
		recurring: &recurringServiceStub{},
		rooms:     &roomServiceStub{},
		blocked:   &blockedServiceStub{},
		settings:  &settingsServiceStub{},
	}

	router := NewRouter(RouterConfig{
		Bookings:  NewBookingHandler(stubs.bookings, nil),
		Recurring: NewRecurringHandler(stubs.recurring, nil),
		Rooms:     NewRoomHandler(stubs.rooms, stubs.blocked, nil),
		Settings:  NewSettingsHandler(stubs.settings, nil),
	})

	return RequirePrincipal(nil)(router), stubs
}

func doRequest(t *testing.T, handler http.Handler, method, target, body string, identity ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if len(identity) > 0 {
		req.Header.Set(headerUserID, identity[0])
	}
	if len(identity) > 1 {
		req.Header.Set(headerUserRole, identity[1])
	}
	if len(identity) > 2 {
		req.Header.Set(headerActingAs, identity[2])
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) errorResponse {
	t.Helper()

	var payload errorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return payload
}

func TestRequirePrincipal(t *testing.T) {
	t.Parallel()

	handler, _ := newTestServer(t)

	recorder := doRequest(t, handler, http.MethodGet, "/rooms", "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("missing identity status = %d, want 401", recorder.Code)
	}

	recorder = doRequest(t, handler, http.MethodGet, "/rooms", "", "user-1", "SUPERUSER")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("bad role status = %d, want 401", recorder.Code)
	}

	recorder = doRequest(t, handler, http.MethodGet, "/rooms", "", "user-1", "MEMBER")
	if recorder.Code != http.StatusOK {
		t.Fatalf("valid identity status = %d, want 200", recorder.Code)
	}
}

func TestCreateBookingEndpoint(t *testing.T) {
	t.Parallel()

	handler, stubs := newTestServer(t)
	stubs.bookings.booking = application.Booking{
		ID: "b1", Title: "planning", RoomID: "room-1", OwnerID: "user-1",
		Start: time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2026, time.March, 2, 11, 0, 0, 0, time.UTC),
	}

	body := `{"title":"planning","room_id":"room-1","start":"2026-03-02T10:00:00Z","end":"2026-03-02T11:00:00Z"}`
	recorder := doRequest(t, handler, http.MethodPost, "/bookings", body, "user-1", "MEMBER")
	if recorder.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", recorder.Code, recorder.Body.String())
	}

	var dto bookingDTO
	if err := json.NewDecoder(recorder.Body).Decode(&dto); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if dto.ID != "b1" || dto.Start != "2026-03-02T10:00:00Z" {
		t.Fatalf("response dto = %+v", dto)
	}

	if stubs.bookings.createParams.Principal.UserID != "user-1" {
		t.Fatalf("service saw principal %+v", stubs.bookings.createParams.Principal)
	}
	if !stubs.bookings.createParams.Input.Start.Equal(time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("service saw start %s", stubs.bookings.createParams.Input.Start)
	}
}

func TestCreateBookingEndpointBadRequests(t *testing.T) {
	t.Parallel()

	handler, _ := newTestServer(t)

	recorder := doRequest(t, handler, http.MethodPost, "/bookings", `not json`, "user-1", "MEMBER")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status = %d, want 400", recorder.Code)
	}

	body := `{"title":"x","room_id":"room-1","start":"tomorrow","end":"2026-03-02T11:00:00Z"}`
	recorder = doRequest(t, handler, http.MethodPost, "/bookings", body, "user-1", "MEMBER")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("bad timestamp status = %d, want 400", recorder.Code)
	}
}

func TestServiceErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"time conflict", application.NewError(application.KindTimeConflict, "overlap"), http.StatusConflict, "TimeConflict"},
		{"already started", application.NewError(application.KindAlreadyStarted, "started"), http.StatusConflict, "AlreadyStarted"},
		{"quota", application.NewLimitError(application.KindQuotaExceeded, 3, "too many"), http.StatusUnprocessableEntity, "QuotaExceeded"},
		{"misaligned", application.NewLimitError(application.KindMisalignedTime, 30, "misaligned"), http.StatusUnprocessableEntity, "MisalignedTime"},
		{"in the past", application.NewError(application.KindInThePast, "past"), http.StatusUnprocessableEntity, "InThePast"},
		{"role", application.NewError(application.KindRoleNotPermitted, "no"), http.StatusForbidden, "RoleNotPermitted"},
		{"not owner", application.NewError(application.KindNotOwner, "no"), http.StatusForbidden, "NotOwner"},
		{"not found", application.NewError(application.KindNotFound, "gone"), http.StatusNotFound, "NotFound"},
		{"unexpected", application.WrapUnexpected(context.DeadlineExceeded), http.StatusInternalServerError, "Unexpected"},
	}

	body := `{"title":"x","room_id":"room-1","start":"2026-03-02T10:00:00Z","end":"2026-03-02T11:00:00Z"}`

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler, stubs := newTestServer(t)
			stubs.bookings.err = tt.err

			recorder := doRequest(t, handler, http.MethodPost, "/bookings", body, "user-1", "MEMBER")
			if recorder.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", recorder.Code, tt.wantStatus)
			}
			payload := decodeError(t, recorder)
			if payload.ErrorCode != tt.wantCode {
				t.Fatalf("error_code = %q, want %q", payload.ErrorCode, tt.wantCode)
			}
		})
	}
}

func TestUnexpectedErrorHidesDetail(t *testing.T) {
	t.Parallel()

	handler, stubs := newTestServer(t)
	stubs.bookings.err = application.WrapUnexpected(context.DeadlineExceeded)

	body := `{"title":"x","room_id":"room-1","start":"2026-03-02T10:00:00Z","end":"2026-03-02T11:00:00Z"}`
	recorder := doRequest(t, handler, http.MethodPost, "/bookings", body, "user-1", "MEMBER")

	payload := decodeError(t, recorder)
	if strings.Contains(payload.Message, "deadline") {
		t.Fatalf("internal detail leaked: %q", payload.Message)
	}
}

func TestQuotaErrorCarriesLimit(t *testing.T) {
	t.Parallel()

	handler, stubs := newTestServer(t)
	stubs.bookings.err = application.NewLimitError(application.KindQuotaExceeded, 3, "maximum 3 active bookings allowed")

	body := `{"title":"x","room_id":"room-1","start":"2026-03-02T10:00:00Z","end":"2026-03-02T11:00:00Z"}`
	recorder := doRequest(t, handler, http.MethodPost, "/bookings", body, "user-1", "MEMBER")

	payload := decodeError(t, recorder)
	if payload.Limit != 3 {
		t.Fatalf("limit = %d, want 3", payload.Limit)
	}
}

func TestBookingLifecycleEndpoints(t *testing.T) {
	t.Parallel()

	handler, stubs := newTestServer(t)
	stubs.bookings.booking = application.Booking{ID: "b1", Title: "renamed"}

	recorder := doRequest(t, handler, http.MethodPatch, "/bookings/b1", `{"title":"renamed"}`, "user-1", "MEMBER")
	if recorder.Code != http.StatusOK {
		t.Fatalf("edit status = %d, want 200", recorder.Code)
	}
	if stubs.bookings.editParams.BookingID != "b1" || stubs.bookings.editParams.Title != "renamed" {
		t.Fatalf("edit params = %+v", stubs.bookings.editParams)
	}

	recorder = doRequest(t, handler, http.MethodDelete, "/bookings/b1", "", "user-1", "MEMBER")
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("cancel status = %d, want 204", recorder.Code)
	}
	if stubs.bookings.cancelledID != "b1" {
		t.Fatalf("cancelled id = %q", stubs.bookings.cancelledID)
	}

	recorder = doRequest(t, handler, http.MethodGet, "/bookings/history", "", "user-1", "MEMBER")
	if recorder.Code != http.StatusOK {
		t.Fatalf("history status = %d, want 200", recorder.Code)
	}

	recorder = doRequest(t, handler, http.MethodPut, "/bookings/b1", "", "user-1", "MEMBER")
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("PUT status = %d, want 405", recorder.Code)
	}
	if allow := recorder.Header().Get("Allow"); !strings.Contains(allow, http.MethodPatch) {
		t.Fatalf("Allow header = %q", allow)
	}
}

func TestListOccurrencesEndpoint(t *testing.T) {
	t.Parallel()

	handler, stubs := newTestServer(t)
	booking := application.Booking{ID: "b1", OwnerID: "user-1"}
	stubs.bookings.occurrences = []application.Occurrence{
		{
			Kind:    application.OccurrenceSingle,
			Title:   "one-off",
			Start:   time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC),
			End:     time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC),
			Booking: &booking,
		},
		{
			Kind:   application.OccurrenceRecurring,
			Title:  "standup",
			Start:  time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC),
			End:    time.Date(2026, time.March, 2, 11, 0, 0, 0, time.UTC),
			RuleID: "r1",
			Date:   "2026-03-02",
		},
	}

	recorder := doRequest(t, handler, http.MethodGet,
		"/rooms/room-1/occurrences?start=2026-03-02T00:00:00Z&end=2026-03-09T00:00:00Z", "",
		"user-1", "MEMBER")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", recorder.Code, recorder.Body.String())
	}

	var payload struct {
		Occurrences []occurrenceDTO `json:"occurrences"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Occurrences) != 2 {
		t.Fatalf("occurrences = %d, want 2", len(payload.Occurrences))
	}
	if payload.Occurrences[0].Kind != "single" || payload.Occurrences[0].BookingID != "b1" {
		t.Fatalf("first occurrence = %+v", payload.Occurrences[0])
	}
	if payload.Occurrences[1].Kind != "recurring" || payload.Occurrences[1].RuleID != "r1" || payload.Occurrences[1].Date != "2026-03-02" {
		t.Fatalf("second occurrence = %+v", payload.Occurrences[1])
	}

	if stubs.bookings.listParams.RoomID != "room-1" {
		t.Fatalf("service saw room %q", stubs.bookings.listParams.RoomID)
	}

	recorder = doRequest(t, handler, http.MethodGet, "/rooms/room-1/occurrences?start=bad&end=worse", "", "user-1", "MEMBER")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("bad range status = %d, want 400", recorder.Code)
	}
}

func TestRecurringRuleEndpoints(t *testing.T) {
	t.Parallel()

	handler, stubs := newTestServer(t)
	stubs.recurring.rule = application.RecurringRule{
		ID: "r1", Title: "standup", RoomID: "room-1", Weekday: time.Monday,
		StartMinute: 540, EndMinute: 600, ExceptionDates: []string{},
	}

	body := `{"title":"standup","room_id":"room-1","weekday":1,"start_minute":540,"end_minute":600}`
	recorder := doRequest(t, handler, http.MethodPost, "/recurring-rules", body, "admin-1", "ADMIN")
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", recorder.Code)
	}
	var dto ruleDTO
	if err := json.NewDecoder(recorder.Body).Decode(&dto); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if dto.ID != "r1" || dto.Weekday != 1 {
		t.Fatalf("rule dto = %+v", dto)
	}

	recorder = doRequest(t, handler, http.MethodDelete, "/recurring-rules/r1/occurrences/2026-03-09", "", "admin-1", "ADMIN")
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("cancel occurrence status = %d, want 204", recorder.Code)
	}
	if stubs.recurring.cancelledRuleID != "r1" || stubs.recurring.cancelledDate != "2026-03-09" {
		t.Fatalf("cancel occurrence saw %q %q", stubs.recurring.cancelledRuleID, stubs.recurring.cancelledDate)
	}

	recorder = doRequest(t, handler, http.MethodDelete, "/recurring-rules/r1", "", "admin-1", "ADMIN")
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("cancel series status = %d, want 204", recorder.Code)
	}

	recorder = doRequest(t, handler, http.MethodDelete, "/recurring-rules/r1/other/2026-03-09", "", "admin-1", "ADMIN")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("bad subresource status = %d, want 404", recorder.Code)
	}
}

func TestRoomEndpoints(t *testing.T) {
	t.Parallel()

	handler, stubs := newTestServer(t)
	stubs.rooms.room = application.Room{ID: "room-1", Name: "Annex"}
	stubs.rooms.rooms = []application.Room{{ID: "room-1", Name: "Annex"}}

	recorder := doRequest(t, handler, http.MethodPost, "/rooms", `{"name":"Annex"}`, "admin-1", "ADMIN")
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", recorder.Code)
	}

	recorder = doRequest(t, handler, http.MethodPut, "/rooms/room-1", `{"name":"Annex"}`, "admin-1", "ADMIN")
	if recorder.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200", recorder.Code)
	}

	recorder = doRequest(t, handler, http.MethodPost, "/rooms/room-1/toggle", "", "admin-1", "ADMIN")
	if recorder.Code != http.StatusOK {
		t.Fatalf("toggle status = %d, want 200", recorder.Code)
	}

	recorder = doRequest(t, handler, http.MethodGet, "/rooms", "", "user-1", "MEMBER")
	if recorder.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", recorder.Code)
	}
	var payload struct {
		Rooms []roomDTO `json:"rooms"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Rooms) != 1 || payload.Rooms[0].Name != "Annex" {
		t.Fatalf("rooms payload = %+v", payload.Rooms)
	}
}

func TestBlockedRangeEndpoints(t *testing.T) {
	t.Parallel()

	handler, stubs := newTestServer(t)
	stubs.blocked.blocked = application.BlockedRange{
		ID: "m1", RoomID: "room-1",
		Start: time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC),
	}
	stubs.blocked.ranges = []application.BlockedRange{stubs.blocked.blocked}

	body := `{"room_id":"room-1","start":"2026-03-02T09:00:00Z","end":"2026-03-02T12:00:00Z"}`
	recorder := doRequest(t, handler, http.MethodPost, "/blocked-ranges", body, "admin-1", "ADMIN")
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", recorder.Code)
	}

	recorder = doRequest(t, handler, http.MethodGet,
		"/rooms/room-1/blocked-ranges?start=2026-03-02T00:00:00Z&end=2026-03-03T00:00:00Z", "",
		"user-1", "MEMBER")
	if recorder.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", recorder.Code)
	}

	recorder = doRequest(t, handler, http.MethodDelete, "/blocked-ranges/m1", "", "admin-1", "ADMIN")
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", recorder.Code)
	}
	if stubs.blocked.deletedID != "m1" {
		t.Fatalf("deleted id = %q", stubs.blocked.deletedID)
	}
}

func TestSettingsEndpoints(t *testing.T) {
	t.Parallel()

	handler, stubs := newTestServer(t)
	stubs.settings.settings = application.Settings{
		GranularityMinutes:      30,
		MaxAdvanceDays:          14,
		MaxBookingDurationHours: 4,
		MaxActiveBookings:       3,
	}

	recorder := doRequest(t, handler, http.MethodGet, "/settings", "", "user-1", "MEMBER")
	if recorder.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", recorder.Code)
	}
	var dto settingsDTO
	if err := json.NewDecoder(recorder.Body).Decode(&dto); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if dto.GranularityMinutes != 30 {
		t.Fatalf("settings dto = %+v", dto)
	}

	body := `{"granularity_minutes":15,"max_advance_days":30,"max_booking_duration_hours":8,"max_active_bookings":5}`
	recorder = doRequest(t, handler, http.MethodPut, "/settings", body, "admin-1", "ADMIN")
	if recorder.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200", recorder.Code)
	}
	if err := json.NewDecoder(recorder.Body).Decode(&dto); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if dto.GranularityMinutes != 15 || dto.MaxActiveBookings != 5 {
		t.Fatalf("updated dto = %+v", dto)
	}
}

func TestActingAsHeaderReachesService(t *testing.T) {
	t.Parallel()

	handler, stubs := newTestServer(t)

	body := `{"title":"x","room_id":"room-1","start":"2026-03-02T10:00:00Z","end":"2026-03-02T11:00:00Z"}`
	recorder := doRequest(t, handler, http.MethodPost, "/bookings", body, "admin-1", "ADMIN", "user-9")
	if recorder.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", recorder.Code)
	}
	if stubs.bookings.createParams.Principal.ActingAsUserID != "user-9" {
		t.Fatalf("principal = %+v, acting-as header lost", stubs.bookings.createParams.Principal)
	}
}
