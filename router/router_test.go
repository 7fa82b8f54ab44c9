package router_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/devcamper-api/api"
	"github.com/sahilchouksey/devcamper-api/database"
	"github.com/sahilchouksey/devcamper-api/database/testdb"
	"github.com/sahilchouksey/devcamper-api/model"
	"github.com/sahilchouksey/devcamper-api/router"
	"github.com/sahilchouksey/devcamper-api/services/geocoder"
	"github.com/sahilchouksey/devcamper-api/services/storage"
	"github.com/sahilchouksey/devcamper-api/utils/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeGeocoder map[string]geocoder.Result

func (f fakeGeocoder) Geocode(_ context.Context, address string) (*geocoder.Result, error) {
	res, ok := f[address]
	if !ok {
		return nil, geocoder.ErrNoMatch
	}
	return &res, nil
}

var places = fakeGeocoder{
	"233 Bay State Rd Boston MA":  {Latitude: 42.350846, Longitude: -71.104028, City: "Boston", State: "MA", Zipcode: "02215"},
	"235 Bay State Rd Boston MA":  {Latitude: 42.350846, Longitude: -71.104028, City: "Boston", State: "MA", Zipcode: "02215"},
	"77 Massachusetts Ave MA":     {Latitude: 42.359055, Longitude: -71.093500, City: "Cambridge", State: "MA", Zipcode: "02139"},
	"02215":                       {Latitude: 42.350846, Longitude: -71.104028, Zipcode: "02215"},
	"1701 Wynkoop St Denver CO":   {Latitude: 39.753060, Longitude: -105.000100, City: "Denver", State: "CO", Zipcode: "80202"},
	"45 Upper College Rd RI":      {Latitude: 41.483304, Longitude: -71.525909, City: "Kingston", State: "RI", Zipcode: "02881"},
	"85 South Prospect Street VT": {Latitude: 44.478869, Longitude: -73.196194, City: "Burlington", State: "VT", Zipcode: "05405"},
}

// 1x1 transparent PNG
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

type fixture struct {
	app       *fiber.App
	db        *gorm.DB
	jwt       *auth.JWTManager
	uploadDir string
}

func newFixture(t *testing.T, roleGate bool) *fixture {
	t.Helper()
	return newFixtureWithUpload(t, roleGate, 1<<20)
}

func newFixtureWithUpload(t *testing.T, roleGate bool, maxUpload int64) *fixture {
	t.Helper()
	auth.Cost = bcrypt.MinCost

	db := testdb.Open(t)
	uploadDir := t.TempDir()
	photos, err := storage.NewLocalStore(uploadDir)
	require.NoError(t, err)

	jwt := auth.NewJWTManager(auth.JWTConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "test"})

	app := api.NewApp(api.Config{BodyLimit: api.BodyLimitFor(maxUpload)})
	router.SetupRoutes(app, router.Dependencies{
		DB:        db,
		Health:    database.NewGORMStore(db),
		JWT:       jwt,
		Blacklist: auth.NewBlacklistService(db),
		Geocoder:  places,
		Photos:    photos,
	}, router.Config{
		RoleGate:         roleGate,
		MaxPageLimit:     100,
		MaxFileUpload:    maxUpload,
		CookieExpireDays: 30,
		UploadDir:        uploadDir,
	})

	return &fixture{app: app, db: db, jwt: jwt, uploadDir: uploadDir}
}

type result struct {
	status int
	raw    []byte
	body   map[string]interface{}
}

func (f *fixture) send(t *testing.T, req *http.Request, token string) result {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	res := result{status: resp.StatusCode, raw: raw}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &res.body), string(raw))
	}
	return res
}

func (f *fixture) do(t *testing.T, method, path string, payload interface{}, token string) result {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return f.send(t, req, token)
}

func (f *fixture) register(t *testing.T, name, email, role string) string {
	t.Helper()
	res := f.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": name, "email": email, "password": "123456", "role": role,
	}, "")
	require.Equal(t, http.StatusOK, res.status, string(res.raw))
	token, _ := res.body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (f *fixture) createBootcamp(t *testing.T, token, name, address string) uint {
	t.Helper()
	res := f.do(t, http.MethodPost, "/api/v1/bootcamps", map[string]interface{}{
		"name":        name,
		"description": "A bootcamp",
		"address":     address,
		"careers":     []string{"Web Development"},
	}, token)
	require.Equal(t, http.StatusCreated, res.status, string(res.raw))
	bootcamp := data(t, res)["bootcamp"].(map[string]interface{})
	return uint(bootcamp["id"].(float64))
}

func data(t *testing.T, res result) map[string]interface{} {
	t.Helper()
	d, ok := res.body["data"].(map[string]interface{})
	require.True(t, ok, string(res.raw))
	return d
}

func TestPing(t *testing.T) {
	f := newFixture(t, true)
	res := f.do(t, http.MethodGet, "/ping", nil, "")
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "ok", data(t, res)["database"])
}

func TestRegisterTokenResolvesToCreatedUser(t *testing.T) {
	f := newFixture(t, true)
	token := f.register(t, "Jane", "Jane@Example.com", model.RolePublisher)

	claims, err := f.jwt.ValidateToken(token)
	require.NoError(t, err)

	var users []model.User
	require.NoError(t, f.db.Where("id = ?", claims.UserID).Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "jane@example.com", users[0].Email)
	assert.Equal(t, model.RolePublisher, users[0].Role)

	me := f.do(t, http.MethodGet, "/api/v1/auth/me", nil, token)
	require.Equal(t, http.StatusOK, me.status)
	user := data(t, me)["user"].(map[string]interface{})
	assert.Equal(t, "jane@example.com", user["email"])
	assert.NotContains(t, user, "passwordHash")
}

func TestRegisterRejectsAdminRoleAndDuplicates(t *testing.T) {
	f := newFixture(t, true)

	res := f.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": "Eve", "email": "eve@example.com", "password": "123456", "role": model.RoleAdmin,
	}, "")
	assert.Equal(t, http.StatusBadRequest, res.status)

	f.register(t, "Jane", "jane@example.com", "")
	res = f.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": "Jane", "email": "JANE@example.com", "password": "123456",
	}, "")
	assert.Equal(t, http.StatusBadRequest, res.status)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t, true)
	f.register(t, "Jane", "jane@example.com", model.RoleUser)

	wrongPassword := f.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "jane@example.com", "password": "nope-nope",
	}, "")
	unknownEmail := f.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "nobody@example.com", "password": "nope-nope",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.status)
	assert.Equal(t, wrongPassword.status, unknownEmail.status)
	assert.Equal(t, string(wrongPassword.raw), string(unknownEmail.raw))
	assert.Equal(t, "Invalid credentials", wrongPassword.body["message"])

	missing := f.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "jane@example.com"}, "")
	assert.Equal(t, http.StatusBadRequest, missing.status)

	ok := f.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "jane@example.com", "password": "123456",
	}, "")
	require.Equal(t, http.StatusOK, ok.status)
	assert.NotEmpty(t, ok.body["token"])
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t, true)
	token := f.register(t, "Jane", "jane@example.com", model.RoleUser)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/auth/logout", nil, token).status)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/v1/auth/me", nil, token).status)
}

func TestUserRoleCannotCreateBootcamp(t *testing.T) {
	f := newFixture(t, true)
	token := f.register(t, "Mary", "mary@example.com", model.RoleUser)

	res := f.do(t, http.MethodPost, "/api/v1/bootcamps", map[string]interface{}{
		"name":        "Sneaky Camp",
		"description": "Should not exist",
		"address":     "233 Bay State Rd Boston MA",
		"careers":     []string{"Business"},
	}, token)
	assert.Equal(t, http.StatusForbidden, res.status)
	assert.Equal(t, "User role user is not authorized to access this route", res.body["message"])

	var count int64
	require.NoError(t, f.db.Model(&model.Bootcamp{}).Count(&count).Error)
	assert.Zero(t, count)

	anonymous := f.do(t, http.MethodPost, "/api/v1/bootcamps", map[string]interface{}{"name": "x"}, "")
	assert.Equal(t, http.StatusUnauthorized, anonymous.status)
}

func TestDisabledRoleGateAllowsUsers(t *testing.T) {
	f := newFixture(t, false)
	token := f.register(t, "Mary", "mary@example.com", model.RoleUser)
	f.createBootcamp(t, token, "Open Camp", "233 Bay State Rd Boston MA")
}

func TestOnlyOwnerOrAdminModifiesBootcamp(t *testing.T) {
	f := newFixture(t, true)
	owner := f.register(t, "John", "john@example.com", model.RolePublisher)
	other := f.register(t, "Kevin", "kevin@example.com", model.RolePublisher)
	id := f.createBootcamp(t, owner, "Devworks", "233 Bay State Rd Boston MA")

	res := f.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/bootcamps/%d", id), map[string]interface{}{"housing": true}, other)
	assert.Equal(t, http.StatusForbidden, res.status)

	res = f.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/bootcamps/%d", id), map[string]interface{}{"name": "Devworks Pro"}, owner)
	require.Equal(t, http.StatusOK, res.status, string(res.raw))
	bootcamp := data(t, res)["bootcamp"].(map[string]interface{})
	assert.Equal(t, "devworks-pro", bootcamp["slug"])

	res = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/bootcamps/%d", id), nil, owner)
	assert.Equal(t, http.StatusNoContent, res.status)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bootcamps/%d", id), nil, "").status)
}

func TestRadiusZeroReturnsExactPointOnly(t *testing.T) {
	f := newFixture(t, true)
	token := f.register(t, "John", "john@example.com", model.RolePublisher)
	f.createBootcamp(t, token, "Devworks", "233 Bay State Rd Boston MA")
	f.createBootcamp(t, token, "Devworks Annex", "235 Bay State Rd Boston MA")
	f.createBootcamp(t, token, "MIT Camp", "77 Massachusetts Ave MA")
	f.createBootcamp(t, token, "Denver Camp", "1701 Wynkoop St Denver CO")

	res := f.do(t, http.MethodGet, "/api/v1/bootcamps/radius/02215/0", nil, "")
	require.Equal(t, http.StatusOK, res.status, string(res.raw))
	assert.EqualValues(t, 2, res.body["count"])

	res = f.do(t, http.MethodGet, "/api/v1/bootcamps/radius/02215/5", nil, "")
	require.Equal(t, http.StatusOK, res.status)
	assert.EqualValues(t, 3, res.body["count"])

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/v1/bootcamps/radius/02215/far", nil, "").status)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/bootcamps/radius/99999/10", nil, "").status)
}

func TestAverageCostFollowsCourses(t *testing.T) {
	f := newFixture(t, true)
	token := f.register(t, "John", "john@example.com", model.RolePublisher)
	id := f.createBootcamp(t, token, "Devworks", "233 Bay State Rd Boston MA")

	addCourse := func(title string, tuition float64) uint {
		res := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bootcamps/%d/courses", id), map[string]interface{}{
			"title":        title,
			"description":  "A course",
			"weeks":        8,
			"tuition":      tuition,
			"minimumSkill": "beginner",
		}, token)
		require.Equal(t, http.StatusCreated, res.status, string(res.raw))
		course := data(t, res)["course"].(map[string]interface{})
		return uint(course["id"].(float64))
	}
	averageCost := func() interface{} {
		res := f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bootcamps/%d", id), nil, "")
		require.Equal(t, http.StatusOK, res.status)
		return data(t, res)["bootcamp"].(map[string]interface{})["averageCost"]
	}

	first := addCourse("Front End", 8000)
	second := addCourse("Full Stack", 10001)
	// mean 9000.5 rounds up to the next ten
	assert.EqualValues(t, 9010, averageCost())

	res := f.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/courses/%d", second), map[string]interface{}{"tuition": 12000}, token)
	require.Equal(t, http.StatusOK, res.status, string(res.raw))
	assert.EqualValues(t, 10000, averageCost())

	require.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/courses/%d", first), nil, token).status)
	require.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/courses/%d", second), nil, token).status)
	assert.Nil(t, averageCost())

	addCourse("Data Science", 4995)
	assert.EqualValues(t, 5000, averageCost())

	list := f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bootcamps/%d/courses", id), nil, "")
	require.Equal(t, http.StatusOK, list.status)
	assert.EqualValues(t, 1, list.body["count"])

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/bootcamps/999/courses", nil, "").status)
}

func TestCourseRequiresBootcampOwner(t *testing.T) {
	f := newFixture(t, true)
	owner := f.register(t, "John", "john@example.com", model.RolePublisher)
	other := f.register(t, "Kevin", "kevin@example.com", model.RolePublisher)
	id := f.createBootcamp(t, owner, "Devworks", "233 Bay State Rd Boston MA")

	res := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bootcamps/%d/courses", id), map[string]interface{}{
		"title": "Hijack", "description": "x", "weeks": 1, "tuition": 1, "minimumSkill": "beginner",
	}, other)
	assert.Equal(t, http.StatusForbidden, res.status)

	res = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bootcamps/%d/courses", id), map[string]interface{}{
		"title": "Bad skill", "description": "x", "weeks": 1, "tuition": 1, "minimumSkill": "expert",
	}, owner)
	assert.Equal(t, http.StatusBadRequest, res.status)

	var count int64
	require.NoError(t, f.db.Model(&model.Course{}).Count(&count).Error)
	assert.Zero(t, count)
}

func photoRequest(t *testing.T, id uint, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="photo"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/api/v1/bootcamps/%d/photo", id), &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestPhotoUpload(t *testing.T) {
	f := newFixture(t, true)
	token := f.register(t, "John", "john@example.com", model.RolePublisher)
	id := f.createBootcamp(t, token, "Devworks", "233 Bay State Rd Boston MA")

	photo := func() interface{} {
		res := f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bootcamps/%d", id), nil, "")
		return data(t, res)["bootcamp"].(map[string]interface{})["photo"]
	}

	res := f.send(t, photoRequest(t, id, "notes.png", "image/png", []byte("definitely not an image")), token)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Nil(t, photo())

	res = f.send(t, photoRequest(t, id, "notes.txt", "text/plain", []byte("hello")), token)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Nil(t, photo())

	res = f.send(t, photoRequest(t, id, "camp.png", "image/png", pngBytes), token)
	require.Equal(t, http.StatusOK, res.status, string(res.raw))
	name := fmt.Sprintf("photo_%d.png", id)
	assert.Equal(t, name, data(t, res)["photo"])
	assert.Equal(t, name, photo())

	_, err := os.Stat(filepath.Join(f.uploadDir, name))
	assert.NoError(t, err)

	served, err := f.app.Test(httptest.NewRequest(http.MethodGet, "/uploads/"+name, nil), -1)
	require.NoError(t, err)
	defer served.Body.Close()
	assert.Equal(t, http.StatusOK, served.StatusCode)
}

func TestPhotoUploadStoresSniffedExtension(t *testing.T) {
	f := newFixture(t, true)
	token := f.register(t, "John", "john@example.com", model.RolePublisher)
	id := f.createBootcamp(t, token, "Devworks", "233 Bay State Rd Boston MA")

	res := f.send(t, photoRequest(t, id, "x.html", "image/png", pngBytes), token)
	require.Equal(t, http.StatusOK, res.status, string(res.raw))
	name := fmt.Sprintf("photo_%d.png", id)
	assert.Equal(t, name, data(t, res)["photo"])

	_, err := os.Stat(filepath.Join(f.uploadDir, fmt.Sprintf("photo_%d.html", id)))
	assert.True(t, os.IsNotExist(err))
}

func TestPhotoUploadOverLimitIsValidationError(t *testing.T) {
	const maxUpload = 100000
	f := newFixtureWithUpload(t, true, maxUpload)
	token := f.register(t, "John", "john@example.com", model.RolePublisher)
	id := f.createBootcamp(t, token, "Devworks", "233 Bay State Rd Boston MA")

	for _, size := range []int{maxUpload + 1, 3 * maxUpload} {
		content := append(append([]byte{}, pngBytes...), make([]byte, size-len(pngBytes))...)
		res := f.send(t, photoRequest(t, id, "camp.png", "image/png", content), token)
		require.Equal(t, http.StatusBadRequest, res.status, "size %d", size)
		assert.Equal(t, fmt.Sprintf("Please upload an image less than %d bytes", maxUpload), res.body["message"])
	}

	res := f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bootcamps/%d", id), nil, "")
	assert.Nil(t, data(t, res)["bootcamp"].(map[string]interface{})["photo"])
}

func TestListBootcampsPaginates(t *testing.T) {
	f := newFixture(t, true)
	token := f.register(t, "John", "john@example.com", model.RolePublisher)
	for _, name := range []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo"} {
		f.createBootcamp(t, token, name, "45 Upper College Rd RI")
	}

	res := f.do(t, http.MethodGet, "/api/v1/bootcamps?sort=name&limit=2&page=2", nil, "")
	require.Equal(t, http.StatusOK, res.status, string(res.raw))
	assert.EqualValues(t, 2, res.body["count"])

	rows := res.body["data"].([]interface{})
	require.Len(t, rows, 2)
	assert.Equal(t, "Charlie", rows[0].(map[string]interface{})["name"])
	assert.Equal(t, "Delta", rows[1].(map[string]interface{})["name"])

	pagination := res.body["pagination"].(map[string]interface{})
	assert.EqualValues(t, 1, pagination["prev"].(map[string]interface{})["page"])
	assert.EqualValues(t, 3, pagination["next"].(map[string]interface{})["page"])

	res = f.do(t, http.MethodGet, "/api/v1/bootcamps?sort=name&limit=2&page=3", nil, "")
	require.Equal(t, http.StatusOK, res.status)
	pagination = res.body["pagination"].(map[string]interface{})
	assert.NotContains(t, pagination, "next")
	assert.Contains(t, pagination, "prev")

	bad := f.do(t, http.MethodGet, "/api/v1/bootcamps?password=x", nil, "")
	assert.Equal(t, http.StatusBadRequest, bad.status)
}

func TestListBootcampsFiltersCareers(t *testing.T) {
	f := newFixture(t, true)
	token := f.register(t, "John", "john@example.com", model.RolePublisher)
	f.createBootcamp(t, token, "Alpha", "45 Upper College Rd RI")
	f.do(t, http.MethodPost, "/api/v1/bootcamps", map[string]interface{}{
		"name":        "Bravo",
		"description": "Business school",
		"address":     "85 South Prospect Street VT",
		"careers":     []string{"Business", "Data Science"},
	}, token)

	res := f.do(t, http.MethodGet, "/api/v1/bootcamps?careers[in]=Business&select=name", nil, "")
	require.Equal(t, http.StatusOK, res.status, string(res.raw))
	rows := res.body["data"].([]interface{})
	require.Len(t, rows, 1)
	row := rows[0].(map[string]interface{})
	assert.Equal(t, "Bravo", row["name"])
	assert.NotContains(t, row, "description")

	for _, careers := range []string{"%25", "_", "Data_Science"} {
		res = f.do(t, http.MethodGet, "/api/v1/bootcamps?careers="+careers, nil, "")
		require.Equal(t, http.StatusOK, res.status, string(res.raw))
		assert.EqualValues(t, 0, res.body["count"], careers)
	}
}
