package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitreq/packages/cookiejar"
	"github.com/abdul-hamid-achik/hitreq/packages/payload"
)

func TestNew_Defaults(t *testing.T) {
	cfg := New("http://example.com").Config()

	assert.Equal(t, "GET", cfg.Method)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, "application/x-www-form-urlencoded; charset=UTF-8", cfg.ContentType)
	assert.Contains(t, UserAgents(), cfg.UserAgent)
	assert.NotNil(t, cfg.Jar)
	assert.False(t, cfg.Binary)
}

func TestRequest_MethodUpperCased(t *testing.T) {
	r := New("http://example.com").SetMethod("patch")
	assert.Equal(t, "PATCH", r.Config().Method)

	r = NewRequest("delete", "http://example.com")
	assert.Equal(t, "DELETE", r.Config().Method)
}

func TestRequest_IgnoresEmptyEntries(t *testing.T) {
	r := New("http://example.com").
		SetPath("", "x").
		SetPath("id", "").
		AddQuery("", "x").
		SetCookie("", "v").
		SetCookie("k", "").
		SetHeader("", "v").
		SetData("", "v").
		SetBody(nil)

	cfg := r.Config()
	assert.Empty(t, cfg.PathParams)
	assert.Equal(t, 0, cfg.QueryParams.Len())
	assert.Empty(t, cfg.Headers)
	assert.Nil(t, cfg.Body)
	assert.Equal(t, 0, cfg.Jar.Len())
}

func TestRequest_QueryKeepsEmptyValue(t *testing.T) {
	r := New("http://example.com").AddQuery("flag", "")
	cfg := r.Config()
	assert.Equal(t, []string{""}, cfg.QueryParams.Values("flag"))
}

func TestRequest_AddQueryMap(t *testing.T) {
	r := New("http://example.com").AddQueryMap(map[string][]string{
		"b": {"1", "2"},
		"a": {"3"},
	})

	cfg := r.Config()
	assert.Equal(t, []string{"a", "b"}, cfg.QueryParams.Keys())
	assert.Equal(t, []string{"1", "2"}, cfg.QueryParams.Values("b"))
}

func TestRequest_HeadersCaseInsensitive(t *testing.T) {
	r := New("http://example.com").
		SetHeader("x-token", "a").
		SetHeader("X-TOKEN", "b")

	cfg := r.Config()
	assert.Equal(t, "b", cfg.Headers.Get("X-Token"))
	assert.Len(t, cfg.Headers, 1)
}

func TestRequest_CookieHeaderGoesToJar(t *testing.T) {
	r := New("http://example.com").SetHeader("cookie", "a=1; b=2")

	cfg := r.Config()
	assert.Empty(t, cfg.Headers.Get("Cookie"))
	header, ok := cfg.Jar.Header()
	require.True(t, ok)
	assert.Equal(t, "a=1;b=2", header)
	assert.NoError(t, r.Err())
}

func TestRequest_MalformedCookieWithoutFallback(t *testing.T) {
	r := New("http://example.com").SetHeader("Cookie", "bad name=1")

	require.Error(t, r.Err())
	assert.True(t, cookiejar.IsMalformed(r.Err()))
}

func TestRequest_MalformedCookieWithFallbackIsSkipped(t *testing.T) {
	r := New("http://example.com").
		SetCookie("session", "abc").
		SetHeader("Cookie", "bad name=1")

	assert.NoError(t, r.Err())
	assert.Len(t, r.Skipped(), 1)

	r = New("http://example.com").SetHeader("Cookie", "ok=1; bad name=1")
	assert.NoError(t, r.Err())
	assert.Len(t, r.Skipped(), 1)
	v, _ := r.Jar().Get("ok")
	assert.Equal(t, "1", v)
}

func TestRequest_DataCoercesBodyToForm(t *testing.T) {
	r := New("http://example.com").
		SetData("b", "2").
		SetData("a", "1")

	form, ok := r.Config().Body.(*payload.Form)
	require.True(t, ok)
	assert.Equal(t, "b=2&a=1", form.Encode())
}

func TestRequest_DataReplacesNonMapBody(t *testing.T) {
	r := New("http://example.com").
		SetBody([]int{1, 2}).
		SetDataMap(map[string]string{"k": "v"})

	form, ok := r.Config().Body.(*payload.Form)
	require.True(t, ok)
	assert.Equal(t, "k=v", form.Encode())
}

func TestRequest_DataExtendsMapBody(t *testing.T) {
	r := New("http://example.com").
		SetBody(map[string]string{"x": "1"}).
		SetData("y", "2")

	form, ok := r.Config().Body.(*payload.Form)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"x": "1", "y": "2"}, form.Map())
}

func TestRequest_BodyReplacesForm(t *testing.T) {
	type user struct {
		Name string `json:"name"`
	}
	r := New("http://example.com").
		SetData("a", "1").
		SetJSON(user{Name: "x"})

	cfg := r.Config()
	assert.Equal(t, user{Name: "x"}, cfg.Body)
	assert.Equal(t, payload.JSON, cfg.ContentType)
}

func TestRequest_BasicAuth(t *testing.T) {
	r := New("http://example.com").SetBasicAuth("Aladdin", "open sesame")
	assert.Equal(t, "Basic QWxhZGRpbjpvcGVuIHNlc2FtZQ==", r.Config().Headers.Get("Authorization"))
}

func TestRequest_SharedJar(t *testing.T) {
	jar := cookiejar.New()
	a := New("http://example.com").SetJar(jar)
	b := New("http://example.com").SetJar(jar).SetJar(nil)

	a.SetCookie("s", "1")
	v, ok := b.Jar().Get("s")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestRequest_ConfigIsSnapshot(t *testing.T) {
	r := New("http://example.com").
		SetPath("id", "1").
		AddQuery("q", "a").
		SetHeader("X-A", "1").
		SetData("k", "v")

	cfg := r.Config()
	cfg.PathParams["id"] = "2"
	cfg.QueryParams.Add("q", "b")
	cfg.Headers.Set("X-A", "2")
	cfg.Body.(*payload.Form).Set("k", "changed")

	again := r.Config()
	assert.Equal(t, "1", again.PathParams["id"])
	assert.Equal(t, []string{"a"}, again.QueryParams.Values("q"))
	assert.Equal(t, "1", again.Headers.Get("X-A"))
	v, _ := again.Body.(*payload.Form).Get("k")
	assert.Equal(t, "v", v)
}
