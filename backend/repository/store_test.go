package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elearning/backend/models"
)

// runStoreTests runs the behaviour every backend must share against a fresh store per case.
func runStoreTests(t *testing.T, newStore func(t *testing.T) *Store) {
	tests := []struct {
		name string
		run  func(t *testing.T, store *Store)
	}{
		{"UsersCreateAndFind", testUsersCreateAndFind},
		{"UsersUpdateAndList", testUsersUpdateAndList},
		{"AddSubscriptionIsIdempotent", testAddSubscriptionIsIdempotent},
		{"MarkCompletedBranches", testMarkCompletedBranches},
		{"MarkCompletedConcurrentNoDuplicates", testMarkCompletedConcurrentNoDuplicates},
		{"EnsureProgressKeepsExistingRecord", testEnsureProgressKeepsExistingRecord},
		{"DeleteCourseCascades", testDeleteCourseCascades},
		{"DeleteLecture", testDeleteLecture},
		{"PaymentLifecycle", testPaymentLifecycle},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.run(t, newStore(t))
		})
	}
}

func seedCourse(t *testing.T, store *Store, lectures int) (*models.Course, []models.Lecture) {
	t.Helper()
	ctx := context.Background()
	course := &models.Course{Title: "Go", Description: "Learn Go", Price: 100, Category: "dev"}
	require.NoError(t, store.Courses.Create(ctx, course))
	var out []models.Lecture
	for i := 0; i < lectures; i++ {
		lecture := &models.Lecture{Title: "Lecture", CourseID: course.ID, Video: "uploads/v.mp4"}
		require.NoError(t, store.Lectures.Create(ctx, lecture))
		out = append(out, *lecture)
	}
	return course, out
}

func testUsersCreateAndFind(t *testing.T, store *Store) {
	ctx := context.Background()

	user := &models.User{Name: "Ann", Email: "ann@example.com", Password: "hash"}
	require.NoError(t, store.Users.Create(ctx, user))
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)

	err := store.Users.Create(ctx, &models.User{Name: "Dup", Email: "ann@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := store.Users.FindByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, []string{}, found.Subscription)

	_, err = store.Users.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func testUsersUpdateAndList(t *testing.T, store *Store) {
	ctx := context.Background()

	a := &models.User{Name: "A", Email: "a@example.com", Password: "h"}
	b := &models.User{Name: "B", Email: "b@example.com", Password: "h"}
	require.NoError(t, store.Users.Create(ctx, a))
	require.NoError(t, store.Users.Create(ctx, b))

	require.NoError(t, store.Users.UpdateRole(ctx, b.ID, models.RoleAdmin))
	assert.ErrorIs(t, store.Users.UpdateRole(ctx, b.ID, models.Role("root")), ErrInvalidRole)
	require.NoError(t, store.Users.UpdatePassword(ctx, b.ID, "new-hash"))
	assert.ErrorIs(t, store.Users.UpdateRole(ctx, "missing", models.RoleAdmin), ErrNotFound)

	users, err := store.Users.ListExcept(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
	assert.Equal(t, "new-hash", users[0].Password)

	n, err := store.Users.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func testAddSubscriptionIsIdempotent(t *testing.T, store *Store) {
	ctx := context.Background()
	user := &models.User{Name: "A", Email: "a@example.com", Password: "h"}
	require.NoError(t, store.Users.Create(ctx, user))
	course, _ := seedCourse(t, store, 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	added := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Users.AddSubscription(ctx, user.ID, course.ID)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				added++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, added)

	found, err := store.Users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{course.ID}, found.Subscription)
	assert.True(t, found.IsSubscribed(course.ID))
}

func testMarkCompletedBranches(t *testing.T, store *Store) {
	ctx := context.Background()
	course, lectures := seedCourse(t, store, 2)

	res, err := store.Progress.MarkCompleted(ctx, "u1", course.ID, lectures[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProgressCreated, res)

	res, err = store.Progress.MarkCompleted(ctx, "u1", course.ID, lectures[1].ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProgressAdded, res)

	res, err = store.Progress.MarkCompleted(ctx, "u1", course.ID, lectures[1].ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProgressAlreadyRecorded, res)

	progress, err := store.Progress.Find(ctx, "u1", course.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{lectures[0].ID, lectures[1].ID}, progress.CompletedLectures)
}

func testMarkCompletedConcurrentNoDuplicates(t *testing.T, store *Store) {
	ctx := context.Background()
	course, lectures := seedCourse(t, store, 1)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Progress.MarkCompleted(ctx, "u1", course.ID, lectures[0].ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	progress, err := store.Progress.Find(ctx, "u1", course.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{lectures[0].ID}, progress.CompletedLectures)
}

func testEnsureProgressKeepsExistingRecord(t *testing.T, store *Store) {
	ctx := context.Background()
	course, lectures := seedCourse(t, store, 1)

	require.NoError(t, store.Progress.Ensure(ctx, "u1", course.ID))
	_, err := store.Progress.MarkCompleted(ctx, "u1", course.ID, lectures[0].ID)
	require.NoError(t, err)
	require.NoError(t, store.Progress.Ensure(ctx, "u1", course.ID))

	progress, err := store.Progress.Find(ctx, "u1", course.ID)
	require.NoError(t, err)
	assert.Len(t, progress.CompletedLectures, 1)

	_, err = store.Progress.Find(ctx, "u2", course.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func testDeleteCourseCascades(t *testing.T, store *Store) {
	ctx := context.Background()
	course, lectures := seedCourse(t, store, 2)
	other, _ := seedCourse(t, store, 1)

	user := &models.User{Name: "A", Email: "a@example.com", Password: "h"}
	require.NoError(t, store.Users.Create(ctx, user))
	_, err := store.Users.AddSubscription(ctx, user.ID, course.ID)
	require.NoError(t, err)
	_, err = store.Users.AddSubscription(ctx, user.ID, other.ID)
	require.NoError(t, err)
	_, err = store.Progress.MarkCompleted(ctx, user.ID, course.ID, lectures[0].ID)
	require.NoError(t, err)

	deleted, err := store.Courses.Delete(ctx, course.ID)
	require.NoError(t, err)
	assert.Len(t, deleted, 2)

	_, err = store.Courses.FindByID(ctx, course.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	n, err := store.Lectures.CountByCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = store.Progress.Find(ctx, user.ID, course.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	found, err := store.Users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{other.ID}, found.Subscription)

	_, err = store.Courses.Delete(ctx, course.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func testDeleteLecture(t *testing.T, store *Store) {
	ctx := context.Background()
	course, lectures := seedCourse(t, store, 2)
	_, err := store.Progress.MarkCompleted(ctx, "u1", course.ID, lectures[0].ID)
	require.NoError(t, err)

	require.NoError(t, store.Lectures.Delete(ctx, lectures[0].ID))
	assert.ErrorIs(t, store.Lectures.Delete(ctx, lectures[0].ID), ErrNotFound)

	progress, err := store.Progress.Find(ctx, "u1", course.ID)
	require.NoError(t, err)
	assert.Empty(t, progress.CompletedLectures)

	total, err := store.Lectures.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func testPaymentLifecycle(t *testing.T, store *Store) {
	ctx := context.Background()

	order := &models.Payment{OrderID: "o1", OrderCode: 11, UserID: "u", CourseID: "c", Amount: 100}
	require.NoError(t, store.Payments.Create(ctx, order))
	assert.NotEmpty(t, order.ID)
	err := store.Payments.Create(ctx, &models.Payment{OrderID: "o1", UserID: "other", CourseID: "c", Amount: 1})
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := store.Payments.FindByOrderID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, found.Status)
	assert.Equal(t, "u", found.UserID)
	assert.EqualValues(t, 100, found.Amount)
	assert.Nil(t, found.PaidAt)

	var wg sync.WaitGroup
	var mu sync.Mutex
	flipped := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Payments.MarkPaid(ctx, "o1", "FT1")
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				flipped++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, flipped)

	found, err = store.Payments.FindByOrderID(ctx, "o1")
	require.NoError(t, err)
	assert.True(t, found.IsPaid())
	assert.Equal(t, "FT1", found.Reference)
	assert.NotNil(t, found.PaidAt)

	_, err = store.Payments.MarkPaid(ctx, "missing", "FT2")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Payments.FindByOrderID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
