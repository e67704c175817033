package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"elearning/backend/config"
	"elearning/backend/events"
	"elearning/backend/mailer"
	"elearning/backend/media"
	"elearning/backend/models"
	"elearning/backend/payment/paymenttest"
	"elearning/backend/repository"
	"elearning/backend/utils"
)

type fixture struct {
	svc     *Services
	store   *repository.Store
	mail    *mailer.Recorder
	events  *events.Recorder
	gateway *paymenttest.Gateway
	cfg     *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, repository.AutoMigrate(db))
	store := repository.NewGormStore(db)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	storage, err := media.NewLocal(t.TempDir())
	require.NoError(t, err)

	cfg := &config.Config{
		JWTSecret:        "jwt",
		ActivationSecret: "activation",
		ResetSecret:      "reset",
		SessionTTL:       time.Hour,
		ActivationTTL:    5 * time.Minute,
		ResetTTL:         5 * time.Minute,
		FrontendURL:      "http://front",
		SuperAdminEmail:  "boss@example.com",
	}
	f := &fixture{
		store:   store,
		mail:    &mailer.Recorder{},
		events:  &events.Recorder{},
		gateway: &paymenttest.Gateway{},
		cfg:     cfg,
	}
	f.svc = New(Deps{
		Store:   store,
		Cfg:     cfg,
		Mailer:  f.mail,
		Events:  f.events,
		Storage: storage,
		Gateway: f.gateway,
		Logger:  zap.NewNop().Sugar(),
	})
	return f
}

func (f *fixture) lastOTP(t *testing.T) string {
	t.Helper()
	msg, ok := f.mail.Last()
	require.True(t, ok)
	return msg.Text[len(msg.Text)-6:]
}

func (f *fixture) register(t *testing.T, name, email string) *models.User {
	t.Helper()
	ctx := context.Background()
	token, err := f.svc.Users.Register(ctx, RegisterInput{Name: name, Email: email, Password: "secret1"})
	require.NoError(t, err)
	user, err := f.svc.Users.Verify(ctx, f.lastOTP(t), token)
	require.NoError(t, err)
	return user
}

func (f *fixture) course(t *testing.T, lectures int) (*models.Course, []models.Lecture) {
	t.Helper()
	ctx := context.Background()
	course, err := f.svc.Courses.Create(ctx, CourseInput{
		Title: "Go", Description: "Learn Go", Price: 99.6, Duration: 4,
		Category: "dev", CreatedBy: "Admin", Image: "uploads/a.png",
	})
	require.NoError(t, err)
	var out []models.Lecture
	for i := 0; i < lectures; i++ {
		l, err := f.svc.Courses.AddLecture(ctx, course.ID, LectureInput{Title: "L", Description: "d", Video: "uploads/v.mp4"})
		require.NoError(t, err)
		out = append(out, *l)
	}
	return course, out
}

func requireKind(t *testing.T, err error, kind Kind, message string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, KindOf(err), err.Error())
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, message, e.Message)
}

func TestRegisterAndVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, err := f.svc.Users.Register(ctx, RegisterInput{Name: "Ann", Email: " Ann@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	otp := f.lastOTP(t)

	_, err = f.svc.Users.Verify(ctx, "000000", token)
	requireKind(t, err, KindValidation, "Wrong Otp")
	n, err := f.store.Users.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.svc.Users.Verify(ctx, otp, "garbage")
	requireKind(t, err, KindValidation, "Otp Expired")

	user, err := f.svc.Users.Verify(ctx, otp, token)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Len(t, f.events.OfType(events.UserRegistered), 1)

	_, err = f.svc.Users.Verify(ctx, otp, token)
	requireKind(t, err, KindConflict, "User already exists")
	n, err = f.store.Users.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = f.svc.Users.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	requireKind(t, err, KindConflict, "User already exists")
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Users.Register(context.Background(), RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "123"})
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Empty(t, f.mail.Sent())
}

func TestVerifyExpiredActivation(t *testing.T) {
	f := newFixture(t)
	token, err := utils.GenerateActivationToken(utils.ActivationClaims{
		Email:     "ann@example.com",
		OTPDigest: utils.Digest("activation", "123456", "ann@example.com"),
	}, "activation", -time.Second)
	require.NoError(t, err)

	_, err = f.svc.Users.Verify(context.Background(), "123456", token)
	requireKind(t, err, KindValidation, "Otp Expired")
}

func TestConfiguredSuperAdminRegistersAsSuperAdmin(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "Boss", "boss@example.com")
	assert.Equal(t, models.RoleSuperAdmin, user.Role)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registered := f.register(t, "Ann", "ann@example.com")

	_, _, err := f.svc.Users.Login(ctx, "nobody@example.com", "secret1")
	requireKind(t, err, KindValidation, "No User with this email")

	_, _, err = f.svc.Users.Login(ctx, "ann@example.com", "wrong")
	requireKind(t, err, KindValidation, "Wrong Password")

	token, user, err := f.svc.Users.Login(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	authed, err := f.svc.Users.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, authed.ID)

	_, err = f.svc.Users.Authenticate(ctx, token+"x")
	requireKind(t, err, KindUnauthorized, "Login First")
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Ann", "ann@example.com")

	err := f.svc.Users.ForgotPassword(ctx, "nobody@example.com")
	requireKind(t, err, KindNotFound, "No User with this email")

	require.NoError(t, f.svc.Users.ForgotPassword(ctx, "ann@example.com"))
	msg, ok := f.mail.Last()
	require.True(t, ok)
	i := strings.Index(msg.Text, "/reset-password/")
	require.Positive(t, i)
	token := msg.Text[i+len("/reset-password/"):]

	require.NoError(t, f.svc.Users.ResetPassword(ctx, token, "newsecret"))
	_, _, err = f.svc.Users.Login(ctx, "ann@example.com", "newsecret")
	require.NoError(t, err)

	err = f.svc.Users.ResetPassword(ctx, token, "another1")
	requireKind(t, err, KindValidation, "Token Expired")

	err = f.svc.Users.ResetPassword(ctx, "garbage", "another1")
	requireKind(t, err, KindValidation, "Token Expired")
}

func TestSeedSuperAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cfg.SuperAdminPassword = "rootpass"
	f.cfg.SuperAdminName = "Root"

	require.NoError(t, f.svc.Users.SeedSuperAdmin(ctx))
	require.NoError(t, f.svc.Users.SeedSuperAdmin(ctx))

	user, err := f.store.Users.FindByEmail(ctx, "boss@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, user.Role)
	n, err := f.store.Users.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestLectureAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course, lectures := f.course(t, 2)

	student := &models.User{ID: "s1", Role: models.RoleUser, Subscription: []string{}}
	_, err := f.svc.Courses.Lectures(ctx, student, course.ID)
	requireKind(t, err, KindValidation, "You have not subscribed to this course")
	_, err = f.svc.Courses.Lecture(ctx, student, lectures[0].ID)
	requireKind(t, err, KindValidation, "You have not subscribed to this course")

	student.Subscription = []string{course.ID}
	got, err := f.svc.Courses.Lectures(ctx, student, course.ID)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	admin := &models.User{ID: "a1", Role: models.RoleAdmin}
	lecture, err := f.svc.Courses.Lecture(ctx, admin, lectures[1].ID)
	require.NoError(t, err)
	assert.Equal(t, lectures[1].ID, lecture.ID)

	_, err = f.svc.Courses.Lecture(ctx, admin, "missing")
	requireKind(t, err, KindNotFound, "Lecture not found")
}

func TestAddLectureUnknownCourse(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Courses.AddLecture(context.Background(), "missing", LectureInput{Title: "L", Description: "d", Video: "v"})
	requireKind(t, err, KindNotFound, "No Course with this id")
}

func TestDeleteCourse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course, lectures := f.course(t, 2)
	admin := &models.User{ID: "a1", Role: models.RoleAdmin}

	require.NoError(t, f.svc.Courses.Delete(ctx, course.ID))
	_, err := f.svc.Courses.Get(ctx, course.ID)
	requireKind(t, err, KindNotFound, "Course not found")
	for _, l := range lectures {
		_, err := f.svc.Courses.Lecture(ctx, admin, l.ID)
		requireKind(t, err, KindNotFound, "Lecture not found")
	}
	assert.Len(t, f.events.OfType(events.CourseDeleted), 1)

	err = f.svc.Courses.Delete(ctx, course.ID)
	requireKind(t, err, KindNotFound, "Course not found")
}

func TestCheckoutAndVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "Ann", "ann@example.com")
	course, _ := f.course(t, 1)

	_, _, err := f.svc.Payments.Checkout(ctx, user, "missing")
	requireKind(t, err, KindNotFound, "Course not found")

	link, got, err := f.svc.Payments.Checkout(ctx, user, course.ID)
	require.NoError(t, err)
	assert.Equal(t, course.ID, got.ID)
	assert.EqualValues(t, 100, link.Amount)
	require.Len(t, f.gateway.Orders, 1)
	assert.Equal(t, "http://front/success", f.gateway.Orders[0].ReturnURL)

	order, err := f.store.Payments.FindByOrderID(ctx, link.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, order.Status)
	assert.Equal(t, user.ID, order.UserID)
	assert.Equal(t, course.ID, order.CourseID)
	assert.EqualValues(t, 100, order.Amount)

	in := VerifyPaymentInput{OrderID: link.OrderID}
	err = f.svc.Payments.Verify(ctx, user, course.ID, in)
	requireKind(t, err, KindValidation, "Payment Failed")

	require.True(t, f.gateway.Pay(link.OrderID))
	require.NoError(t, f.svc.Payments.Verify(ctx, user, course.ID, in))

	order, err = f.store.Payments.FindByOrderID(ctx, link.OrderID)
	require.NoError(t, err)
	assert.True(t, order.IsPaid())
	assert.Equal(t, "ref_1", order.Reference)

	// a stale user snapshot replaying the same order must not enroll twice
	err = f.svc.Payments.Verify(ctx, user, course.ID, in)
	requireKind(t, err, KindConflict, "You already have this course")

	fresh, err := f.store.Users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{course.ID}, fresh.Subscription)

	err = f.svc.Payments.Verify(ctx, fresh, course.ID, in)
	requireKind(t, err, KindConflict, "You already have this course")
	_, _, err = f.svc.Payments.Checkout(ctx, fresh, course.ID)
	requireKind(t, err, KindConflict, "You already have this course")

	progress, err := f.svc.Progress.Get(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.Zero(t, progress.CompletedLectures)
	assert.Equal(t, 1, progress.AllLectures)
	assert.Len(t, f.events.OfType(events.CourseEnrolled), 1)

	mine, err := f.svc.Courses.MyCourses(ctx, fresh)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, course.ID, mine[0].ID)
}

func TestVerifyRejectsForeignOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "Ann", "ann@example.com")
	bob := f.register(t, "Bob", "bob@example.com")
	course, _ := f.course(t, 0)
	pricey, err := f.svc.Courses.Create(ctx, CourseInput{
		Title: "Kubernetes", Description: "Clusters", Price: 5000, Duration: 12,
		Category: "ops", CreatedBy: "Admin", Image: "uploads/k.png",
	})
	require.NoError(t, err)

	link, _, err := f.svc.Payments.Checkout(ctx, ann, course.ID)
	require.NoError(t, err)
	require.True(t, f.gateway.Pay(link.OrderID))

	cases := []struct {
		name     string
		user     *models.User
		courseID string
		orderID  string
	}{
		{name: "order never issued", user: ann, courseID: course.ID, orderID: "order_999"},
		{name: "empty order", user: ann, courseID: course.ID, orderID: ""},
		{name: "order of another user", user: bob, courseID: course.ID, orderID: link.OrderID},
		{name: "cheap order for a pricey course", user: ann, courseID: pricey.ID, orderID: link.OrderID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.svc.Payments.Verify(ctx, tc.user, tc.courseID, VerifyPaymentInput{OrderID: tc.orderID})
			requireKind(t, err, KindValidation, "Payment Failed")
		})
	}

	for _, u := range []*models.User{ann, bob} {
		fresh, err := f.store.Users.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, fresh.Subscription)
	}
	assert.Empty(t, f.events.OfType(events.CourseEnrolled))

	require.NoError(t, f.svc.Payments.Verify(ctx, ann, course.ID, VerifyPaymentInput{OrderID: link.OrderID}))
}

func TestVerifyRejectsOrderUnknownToGateway(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "Ann", "ann@example.com")
	course, _ := f.course(t, 0)

	// stored locally but never created on the gateway
	require.NoError(t, f.store.Payments.Create(ctx, &models.Payment{
		OrderID: "order_local", UserID: ann.ID, CourseID: course.ID, Amount: 100,
	}))
	err := f.svc.Payments.Verify(ctx, ann, course.ID, VerifyPaymentInput{OrderID: "order_local"})
	requireKind(t, err, KindValidation, "Payment Failed")
}

type flakyProgress struct {
	repository.ProgressRepository
	failures int
}

func (p *flakyProgress) Ensure(ctx context.Context, userID, courseID string) error {
	if p.failures > 0 {
		p.failures--
		return errors.New("progress store unavailable")
	}
	return p.ProgressRepository.Ensure(ctx, userID, courseID)
}

func TestVerifyIsRetryableAfterProgressFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "Ann", "ann@example.com")
	course, _ := f.course(t, 2)
	f.store.Progress = &flakyProgress{ProgressRepository: f.store.Progress, failures: 1}

	link, _, err := f.svc.Payments.Checkout(ctx, ann, course.ID)
	require.NoError(t, err)
	require.True(t, f.gateway.Pay(link.OrderID))
	in := VerifyPaymentInput{OrderID: link.OrderID}

	err = f.svc.Payments.Verify(ctx, ann, course.ID, in)
	requireKind(t, err, KindInternal, "Internal server error")

	fresh, err := f.store.Users.FindByID(ctx, ann.ID)
	require.NoError(t, err)
	assert.Empty(t, fresh.Subscription)

	require.NoError(t, f.svc.Payments.Verify(ctx, fresh, course.ID, in))
	progress, err := f.svc.Progress.Get(ctx, ann.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, progress.AllLectures)

	fresh, err = f.store.Users.FindByID(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{course.ID}, fresh.Subscription)
}

func TestProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	course, lectures := f.course(t, 4)
	_, otherLectures := f.course(t, 1)

	_, err := f.svc.Progress.Get(ctx, "u1", course.ID)
	requireKind(t, err, KindNotFound, "No progress found")

	_, err = f.svc.Progress.Add(ctx, "u1", "missing", lectures[0].ID)
	requireKind(t, err, KindNotFound, "Course not found")
	_, err = f.svc.Progress.Add(ctx, "u1", course.ID, otherLectures[0].ID)
	requireKind(t, err, KindNotFound, "Lecture not found")

	res, err := f.svc.Progress.Add(ctx, "u1", course.ID, lectures[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProgressCreated, res)

	res, err = f.svc.Progress.Add(ctx, "u1", course.ID, lectures[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProgressAlreadyRecorded, res)

	res, err = f.svc.Progress.Add(ctx, "u1", course.ID, lectures[1].ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProgressAdded, res)

	got, err := f.svc.Progress.Get(ctx, "u1", course.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CompletedLectures)
	assert.Equal(t, 4, got.AllLectures)
	assert.InDelta(t, 50.0, got.Percentage, 1e-9)
	require.Len(t, got.Progress, 1)
	assert.Len(t, got.Progress[0].CompletedLectures, 2)
}

func TestAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boss := f.register(t, "Boss", "boss@example.com")
	ann := f.register(t, "Ann", "ann@example.com")
	f.course(t, 3)

	stats, err := f.svc.Admin.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{TotalCourses: 1, TotalLectures: 3, TotalUsers: 2}, *stats)

	require.Equal(t, models.RoleSuperAdmin, boss.Role)
	user, err := f.svc.Admin.ToggleRole(ctx, boss, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)

	// an admin is not enough, whichever way the call is reached
	_, err = f.svc.Admin.ToggleRole(ctx, user, ann.ID)
	requireKind(t, err, KindForbidden, "This endpoint is assin to superadmin")
	_, err = f.svc.Admin.ToggleRole(ctx, nil, ann.ID)
	requireKind(t, err, KindForbidden, "This endpoint is assin to superadmin")

	user, err = f.svc.Admin.ToggleRole(ctx, boss, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)

	_, err = f.svc.Admin.ToggleRole(ctx, boss, boss.ID)
	requireKind(t, err, KindConflict, "Cannot change role of a superadmin")
	_, err = f.svc.Admin.ToggleRole(ctx, boss, "missing")
	requireKind(t, err, KindNotFound, "User not found")

	users, err := f.svc.Admin.Users(ctx, boss.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, ann.ID, users[0].ID)
}

func TestWebhookVerificationSwitch(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.svc.Payments.Webhook([]byte(`{"signature":"bad"}`)))

	f.cfg.PaymentWebhookVerify = true
	err := f.svc.Payments.Webhook([]byte(`{"signature":"bad"}`))
	requireKind(t, err, KindValidation, "Invalid webhook signature")
	assert.NoError(t, f.svc.Payments.Webhook([]byte(`{"signature":"`+paymenttest.ValidSignature+`"}`)))
}
