package req

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialfeed/internal/pkg/errs"
)

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func jsonRequest(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestBindJSON(t *testing.T) {
	var dst loginBody
	require.Nil(t, BindJSON(jsonRequest(`{"email":"a@x.com","password":"secret1"}`), &dst))
	assert.Equal(t, "a@x.com", dst.Email)

	assert.Equal(t, errs.ErrInvalidJSONFormat, BindJSON(jsonRequest(`{"email":`), &dst).Code)
	assert.Equal(t, errs.ErrInvalidJSONFormat, BindJSON(jsonRequest(`{"nope":1}`), &dst).Code)
	assert.Equal(t, errs.ErrExtraContentInBody, BindJSON(jsonRequest(`{} {}`), &dst).Code)

	plain := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	assert.Equal(t, errs.ErrUnsupportedMediaType, BindJSON(plain, &dst).Code)
}

func TestOptionalFile(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("username", "alice"))
	part, err := mw.CreateFormFile("avatar", "pic.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()

	require.Nil(t, SetupMultipart(w, r))

	file, header, customErr := OptionalFile(r, "avatar")
	require.Nil(t, customErr)
	require.NotNil(t, file)
	defer file.Close()
	assert.Equal(t, "pic.png", header.Filename)

	missing, missingHeader, customErr := OptionalFile(r, "banner")
	assert.Nil(t, customErr)
	assert.Nil(t, missing)
	assert.Nil(t, missingHeader)
}

func TestSetupMultipartRejectsOversizedBody(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("avatar", "big.png")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{'x'}, int(MaxRequestSize)+1))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	customErr := SetupMultipart(httptest.NewRecorder(), r)
	require.NotNil(t, customErr)
	assert.Equal(t, errs.ErrRequestEntityTooLarge, customErr.Code)
}
