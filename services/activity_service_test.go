package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"campus-events-api/models"
	"campus-events-api/utils"
)

func TestCreateActivityAssignsIDAndOwner(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createUser(t, "Cara", "Reed", "cara@uni.test", models.RoleCreator)

	spoofed := "someone-else"
	fields := activityFields("Robotics Night", "2026-03-01T18:00:00Z", "Tech")
	fields.CreatedByUserID = &spoofed

	first := env.createActivity(t, creator, fields)
	second := env.createActivity(t, creator, fields)

	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("expected fresh ids, got %q and %q", first.ID, second.ID)
	}
	if first.CreatedByUserID == nil || *first.CreatedByUserID != creator.ID {
		t.Fatalf("owner = %v, want %s", first.CreatedByUserID, creator.ID)
	}
	if len(first.Tags) != 1 || first.Tags[0] != "Tech" {
		t.Fatalf("tags = %v, want [Tech]", first.Tags)
	}
}

func TestCreateActivityRejectsUserRole(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "Uma", "Lee", "uma@uni.test", models.RoleUser)

	_, err := env.activities.Create(context.Background(), activityFields("Nope", "2026-03-01T18:00:00Z"), user, nil)
	assertKind(t, err, utils.KindForbidden, "")
}

func TestCreateActivityRejectsBadDate(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "Ada", "Min", "ada@uni.test", models.RoleAdmin)

	_, err := env.activities.Create(context.Background(), activityFields("Bad", "next tuesday"), admin, nil)
	assertKind(t, err, utils.KindBadRequest, "")
}

func TestCreateActivityUploadFailureDoesNotPersist(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "Ada", "Min", "ada@uni.test", models.RoleAdmin)
	env.store.putErr = errors.New("bucket offline")

	body := pngBytes(t, 10, 10)
	cover := &UploadFile{Filename: "cover.png", ContentType: "image/png", Size: int64(len(body)), Body: strings.NewReader(string(body))}

	_, err := env.activities.Create(context.Background(), activityFields("With cover", "2026-03-01T18:00:00Z"), admin, cover)
	assertKind(t, err, utils.KindInternal, "Error uploading file")

	_, total, _, err := env.activities.List(context.Background(), models.ActivityFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected no persisted activity, got %d", total)
	}
}

func TestCreateActivityWithCover(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "Ada", "Min", "ada@uni.test", models.RoleAdmin)

	body := pngBytes(t, 10, 10)
	cover := &UploadFile{Filename: "cover.png", ContentType: "image/png", Size: int64(len(body)), Body: strings.NewReader(string(body))}

	activity, err := env.activities.Create(context.Background(), activityFields("With cover", "2026-03-01T18:00:00Z"), admin, cover)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if activity.CoverPhotoURL == nil || !strings.HasPrefix(*activity.CoverPhotoURL, testPublicBase+"/activities/") {
		t.Fatalf("cover url = %v", activity.CoverPhotoURL)
	}
	key, _ := env.media.KeyFromURL(*activity.CoverPhotoURL)
	if !env.store.has(key) {
		t.Fatalf("expected stored object %s", key)
	}
}

func TestListFiltersAndOrdering(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.createUser(t, "Ada", "Min", "ada@uni.test", models.RoleAdmin)

	late := env.createActivity(t, admin, activityFields("Late", "2026-05-01T10:00:00Z", "Tech"))
	early := env.createActivity(t, admin, activityFields("Early", "2026-04-01T10:00:00Z", "Music"))
	hidden := env.createActivity(t, admin, activityFields("Hidden", "2026-04-15T10:00:00Z", "tech"))
	archived := env.createActivity(t, admin, activityFields("Archived", "2026-04-20T10:00:00Z", "Tech"))
	env.createActivity(t, admin, activityFields("Sports", "2026-04-10T10:00:00Z", "Sports"))

	if err := env.activities.Hide(ctx, hidden.ID, admin); err != nil {
		t.Fatalf("hide: %v", err)
	}
	if err := env.activities.Archive(ctx, archived.ID, admin); err != nil {
		t.Fatalf("archive: %v", err)
	}

	items, total, _, err := env.activities.List(ctx, models.ActivityFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Fatalf("expected 3 visible activities, got total=%d len=%d", total, len(items))
	}
	if items[0].ID != early.ID || items[2].ID != late.ID {
		t.Fatalf("unexpected order: %s, %s, %s", items[0].Title, items[1].Title, items[2].Title)
	}

	items, _, _, err = env.activities.List(ctx, models.ActivityFilters{Tags: []string{"TECH", "music"}})
	if err != nil {
		t.Fatalf("list by tags: %v", err)
	}
	if len(items) != 2 || items[0].ID != early.ID || items[1].ID != late.ID {
		t.Fatalf("tag filter returned %d items", len(items))
	}

	items, _, _, err = env.activities.List(ctx, models.ActivityFilters{IsArchived: true})
	if err != nil {
		t.Fatalf("list archived: %v", err)
	}
	if len(items) != 1 || items[0].ID != archived.ID {
		t.Fatalf("expected only the archived activity, got %d", len(items))
	}

	if err := env.activities.Archive(ctx, hidden.ID, admin); err != nil {
		t.Fatalf("archive hidden: %v", err)
	}
	items, _, _, err = env.activities.List(ctx, models.ActivityFilters{IsArchived: true})
	if err != nil {
		t.Fatalf("list archived: %v", err)
	}
	for _, item := range items {
		if item.IsHidden {
			t.Fatalf("hidden activity %s listed", item.Title)
		}
	}
}

func TestListPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.createUser(t, "Ada", "Min", "ada@uni.test", models.RoleAdmin)

	for _, start := range []string{"2026-01-01T00:00:00Z", "2026-01-02T00:00:00Z", "2026-01-03T00:00:00Z"} {
		env.createActivity(t, admin, activityFields("Day "+start[8:10], start))
	}

	items, total, applied, err := env.activities.List(ctx, models.ActivityFilters{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(items) != 1 || items[0].Title != "Day 03" {
		t.Fatalf("page 2 = %d items of %d", len(items), total)
	}
	if applied.Page != 2 || applied.PageSize != 2 {
		t.Fatalf("applied = %+v", applied)
	}

	_, _, applied, err = env.activities.List(ctx, models.ActivityFilters{PageSize: 1000})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if applied.Page != 1 || applied.PageSize != MaxActivityPageSize {
		t.Fatalf("defaults not applied: %+v", applied)
	}
}

func TestUpdateActivityOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "Olive", "Ng", "olive@uni.test", models.RoleCreator)
	other := env.createUser(t, "Otto", "Ng", "otto@uni.test", models.RoleCreator)
	user := env.createUser(t, "Uma", "Lee", "uma@uni.test", models.RoleUser)
	admin := env.createUser(t, "Ada", "Min", "ada@uni.test", models.RoleAdmin)

	activity := env.createActivity(t, owner, activityFields("Chess Club", "2026-02-01T18:00:00Z"))
	title := "Renamed"
	patch := models.ActivityPatch{Title: &title}

	for _, caller := range []Caller{other, user} {
		_, err := env.activities.Update(ctx, activity.ID, patch, caller)
		assertKind(t, err, utils.KindForbidden, "You are not allowed to modify this activity")
		assertKind(t, env.activities.Delete(ctx, activity.ID, caller), utils.KindForbidden, "")
		assertKind(t, env.activities.Archive(ctx, activity.ID, caller), utils.KindForbidden, "")
		assertKind(t, env.activities.Hide(ctx, activity.ID, caller), utils.KindForbidden, "")
	}

	current, err := env.activities.GetByID(ctx, activity.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if current.Title != "Chess Club" || current.IsArchived || current.IsHidden {
		t.Fatalf("denied mutation changed the record: %+v", current)
	}

	for _, caller := range []Caller{owner, admin} {
		if _, err := env.activities.Update(ctx, activity.ID, patch, caller); err != nil {
			t.Fatalf("update by %s: %v", caller.Role, err)
		}
	}

	_, err = env.activities.Update(ctx, "missing", patch, admin)
	assertKind(t, err, utils.KindNotFound, "Activity not found")
}

func TestUpdateActivityPatchSemantics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "Olive", "Ng", "olive@uni.test", models.RoleCreator)

	fields := activityFields("Chess Club", "2026-02-01T18:00:00Z", "Games")
	fields.Description = "Weekly games"
	fields.Host = "Chess Society"
	activity := env.createActivity(t, owner, fields)

	empty := ""
	tags := []string{"Strategy"}
	updated, err := env.activities.Update(ctx, activity.ID, models.ActivityPatch{Description: &empty, Tags: &tags}, owner)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Description != "" {
		t.Fatalf("empty string patch not applied: %q", updated.Description)
	}
	if updated.Host != "Chess Society" || updated.Title != "Chess Club" {
		t.Fatalf("nil fields were not preserved: %+v", updated)
	}

	items, _, _, err := env.activities.List(ctx, models.ActivityFilters{Tags: []string{"strategy"}})
	if err != nil || len(items) != 1 {
		t.Fatalf("new tag not indexed: %v (%d)", err, len(items))
	}
	items, _, _, err = env.activities.List(ctx, models.ActivityFilters{Tags: []string{"games"}})
	if err != nil || len(items) != 0 {
		t.Fatalf("old tag still indexed: %v (%d)", err, len(items))
	}

	bad := "soon"
	_, err = env.activities.Update(ctx, activity.ID, models.ActivityPatch{StartDate: &bad}, owner)
	assertKind(t, err, utils.KindBadRequest, "")
}

func TestAttendeeRoster(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.createUser(t, "Ada", "Min", "ada@uni.test", models.RoleAdmin)
	activity := env.createActivity(t, admin, activityFields("Hack Day", "2026-02-01T09:00:00Z"))

	_, err := env.activities.RemoveAttendee(ctx, activity.ID, 0)
	assertKind(t, err, utils.KindBadRequest, "No attendees to remove")

	for _, name := range [][2]string{{"Ann", "Bell"}, {"Ben", "Cole"}} {
		updated, err := env.activities.AddAttendee(ctx, activity.ID, models.AttendeeInput{FirstName: name[0], LastName: name[1]})
		if err != nil {
			t.Fatalf("add %v: %v", name, err)
		}
		if updated.AttendanceCount != len(updated.Attendees) {
			t.Fatalf("count %d != roster %d", updated.AttendanceCount, len(updated.Attendees))
		}
	}

	_, err = env.activities.AddAttendee(ctx, activity.ID, models.AttendeeInput{FirstName: "Ann", LastName: "Bell"})
	assertKind(t, err, utils.KindBadRequest, "Attendee already registered")
	_, err = env.activities.AddAttendee(ctx, activity.ID, models.AttendeeInput{FirstName: " Ann", LastName: "Bell "})
	assertKind(t, err, utils.KindBadRequest, "Attendee already registered")

	_, err = env.activities.RemoveAttendee(ctx, activity.ID, 2)
	assertKind(t, err, utils.KindBadRequest, "Attendee index out of range")

	current, err := env.activities.GetByID(ctx, activity.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(current.Attendees) != 2 || current.AttendanceCount != 2 {
		t.Fatalf("roster changed after failures: %+v", current.Attendees)
	}

	updated, err := env.activities.RemoveAttendee(ctx, activity.ID, 0)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(updated.Attendees) != 1 || updated.Attendees[0].FirstName != "Ben" || updated.AttendanceCount != 1 {
		t.Fatalf("unexpected roster after removal: %+v", updated.Attendees)
	}

	_, err = env.activities.AddAttendee(ctx, "missing", models.AttendeeInput{FirstName: "A", LastName: "B"})
	assertKind(t, err, utils.KindNotFound, "Activity not found")
}

func TestSearchActivities(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.createUser(t, "Ada", "Min", "ada@uni.test", models.RoleAdmin)

	env.createActivity(t, admin, activityFields("100% Fun Run", "2026-02-01T09:00:00Z"))
	env.createActivity(t, admin, activityFields("Jazz Evening", "2026-02-02T09:00:00Z"))
	hidden := env.createActivity(t, admin, activityFields("Jazz Brunch", "2026-02-03T09:00:00Z"))
	if err := env.activities.Hide(ctx, hidden.ID, admin); err != nil {
		t.Fatalf("hide: %v", err)
	}

	items, err := env.activities.Search(ctx, "JAZZ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Jazz Evening" {
		t.Fatalf("case-insensitive search returned %d items", len(items))
	}

	items, err = env.activities.Search(ctx, "%")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 1 || items[0].Title != "100% Fun Run" {
		t.Fatalf("wildcard was not escaped: %d items", len(items))
	}

	items, err = env.activities.Search(ctx, "main hall")
	if err != nil || len(items) != 2 {
		t.Fatalf("location search: %v (%d)", err, len(items))
	}

	_, err = env.activities.Search(ctx, "  ")
	assertKind(t, err, utils.KindBadRequest, "")
}

func TestUpdateCoverImageReplacesOldObject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "Olive", "Ng", "olive@uni.test", models.RoleCreator)
	activity := env.createActivity(t, owner, activityFields("Gallery", "2026-02-01T09:00:00Z"))

	body := pngBytes(t, 20, 20)
	upload := func() UploadFile {
		return UploadFile{Filename: "cover.png", ContentType: "image/png", Size: int64(len(body)), Body: strings.NewReader(string(body))}
	}

	clock := int64(1_700_000_000_000)
	env.media.now = func() time.Time { clock++; return time.UnixMilli(clock) }

	first, err := env.activities.UpdateCoverImage(ctx, activity.ID, upload(), owner)
	if err != nil {
		t.Fatalf("first cover: %v", err)
	}
	firstKey, _ := env.media.KeyFromURL(*first.CoverPhotoURL)

	second, err := env.activities.UpdateCoverImage(ctx, activity.ID, upload(), owner)
	if err != nil {
		t.Fatalf("second cover: %v", err)
	}
	secondKey, _ := env.media.KeyFromURL(*second.CoverPhotoURL)

	if firstKey == secondKey {
		t.Fatalf("expected distinct keys, got %s", firstKey)
	}
	if env.store.has(firstKey) || !env.store.has(secondKey) {
		t.Fatalf("old cover kept=%v new cover stored=%v", env.store.has(firstKey), env.store.has(secondKey))
	}

	stranger := env.createUser(t, "Sam", "Stone", "sam@uni.test", models.RoleCreator)
	_, err = env.activities.UpdateCoverImage(ctx, activity.ID, upload(), stranger)
	assertKind(t, err, utils.KindForbidden, "")
}

func TestDeleteActivity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.createUser(t, "Ada", "Min", "ada@uni.test", models.RoleAdmin)
	activity := env.createActivity(t, admin, activityFields("Gone Soon", "2026-02-01T09:00:00Z", "Temp"))

	if err := env.activities.Delete(ctx, activity.ID, admin); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err := env.activities.GetByID(ctx, activity.ID)
	assertKind(t, err, utils.KindNotFound, "Activity not found")

	var tagRows int64
	env.db.Model(&models.ActivityTag{}).Where("activity_id = ?", activity.ID).Count(&tagRows)
	if tagRows != 0 {
		t.Fatalf("tag rows left behind: %d", tagRows)
	}
}

func TestGetByUserSkipsHiddenAndArchived(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "Olive", "Ng", "olive@uni.test", models.RoleCreator)

	visible := env.createActivity(t, owner, activityFields("Visible", "2026-02-01T09:00:00Z"))
	hidden := env.createActivity(t, owner, activityFields("Hidden", "2026-02-02T09:00:00Z"))
	archived := env.createActivity(t, owner, activityFields("Archived", "2026-02-03T09:00:00Z"))
	if err := env.activities.Hide(ctx, hidden.ID, owner); err != nil {
		t.Fatalf("hide: %v", err)
	}
	if err := env.activities.Archive(ctx, archived.ID, owner); err != nil {
		t.Fatalf("archive: %v", err)
	}

	items, err := env.activities.GetByUser(ctx, owner.ID)
	if err != nil {
		t.Fatalf("get by user: %v", err)
	}
	if len(items) != 1 || items[0].ID != visible.ID {
		t.Fatalf("expected only the visible activity, got %d", len(items))
	}

	if err := env.activities.Unhide(ctx, hidden.ID, owner); err != nil {
		t.Fatalf("unhide: %v", err)
	}
	if err := env.activities.Unarchive(ctx, archived.ID, owner); err != nil {
		t.Fatalf("unarchive: %v", err)
	}
	items, err = env.activities.GetByUser(ctx, owner.ID)
	if err != nil || len(items) != 3 {
		t.Fatalf("after restore: %v (%d)", err, len(items))
	}
}

func TestStartDateRoundTripsAsSameInstant(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "Ada", "Min", "ada@uni.test", models.RoleAdmin)

	created := env.createActivity(t, admin, activityFields("Sunset Talk", "2025-08-15T10:00:00-07:00"))

	loaded, err := env.activities.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := time.Date(2025, 8, 15, 17, 0, 0, 0, time.UTC)
	if !loaded.StartDate.Equal(want) || !loaded.EndDate.Equal(want) {
		t.Fatalf("start = %v, end = %v, want %v", loaded.StartDate, loaded.EndDate, want)
	}
}

func TestMixedOffsetsSortChronologically(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.createUser(t, "Ada", "Min", "ada@uni.test", models.RoleAdmin)

	env.createActivity(t, admin, activityFields("Offset Pacific", "2025-08-15T10:00:00-07:00")) // 17:00Z
	env.createActivity(t, admin, activityFields("Offset Zulu", "2025-08-15T16:00:00Z"))
	env.createActivity(t, admin, activityFields("Offset Central", "2025-08-15T12:00:00+02:00")) // 10:00Z

	want := []string{"Offset Central", "Offset Zulu", "Offset Pacific"}
	check := func(name string, items []models.Activity) {
		t.Helper()
		if len(items) != len(want) {
			t.Fatalf("%s: got %d activities, want %d", name, len(items), len(want))
		}
		for i, title := range want {
			if items[i].Title != title {
				t.Errorf("%s: position %d = %q, want %q", name, i, items[i].Title, title)
			}
		}
	}

	listed, _, _, err := env.activities.List(ctx, models.ActivityFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	check("List", listed)

	owned, err := env.activities.GetByUser(ctx, admin.ID)
	if err != nil {
		t.Fatalf("by user: %v", err)
	}
	check("GetByUser", owned)

	found, err := env.activities.Search(ctx, "offset")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	check("Search", found)
}

func TestUpdateLeavesUnpatchedColumnsAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "Olive", "Ng", "olive@uni.test", models.RoleCreator)
	activity := env.createActivity(t, owner, activityFields("Lab Tour", "2026-03-01T09:00:00Z", "science"))

	// A copy loaded before the roster and visibility changes below.
	stale, err := env.activityRepo.FindByID(ctx, activity.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if _, err := env.activities.AddAttendee(ctx, activity.ID, models.AttendeeInput{FirstName: "Ida", LastName: "Lee"}); err != nil {
		t.Fatalf("add attendee: %v", err)
	}
	if err := env.activities.Hide(ctx, activity.ID, owner); err != nil {
		t.Fatalf("hide: %v", err)
	}

	title := "Lab Tour (updated)"
	columns, err := applyPatch(stale, models.ActivityPatch{Title: &title})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if len(columns) != 1 || columns[0] != "title" {
		t.Fatalf("columns = %v, want [title]", columns)
	}
	if err := env.activityRepo.UpdateFields(ctx, stale, columns); err != nil {
		t.Fatalf("update: %v", err)
	}

	current, err := env.activityRepo.FindByID(ctx, activity.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if current.Title != title {
		t.Fatalf("title = %q", current.Title)
	}
	if current.AttendanceCount != 1 || len(current.Attendees) != 1 {
		t.Fatalf("roster overwritten: count=%d attendees=%d", current.AttendanceCount, len(current.Attendees))
	}
	if !current.IsHidden {
		t.Fatal("hidden flag overwritten")
	}
}
