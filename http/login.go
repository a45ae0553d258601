package http

import (
	"fmt"
	"html"
	"net/http"
	"net/url"

	"github.com/snarkipus/letterbox"
	"github.com/snarkipus/letterbox/pkg/hash"
)

const loginPage = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta http-equiv="content-type" content="text/html; charset=utf-8">
    <title>Login</title>
</head>
<body>
    %s<form action="/login" method="post">
        <label>Username
            <input type="text" placeholder="Enter Username" name="username">
        </label>
        <label>Password
            <input type="password" placeholder="Enter Password" name="password">
        </label>
        <button type="submit">Login</button>
    </form>
</body>
</html>`

// loginFormHandler renders the login form. A flash error is only shown when
// its HMAC tag checks out, so the query string cannot be used to inject
// arbitrary content.
func (s *Server) loginFormHandler(w http.ResponseWriter, r *http.Request) {
	var flash string

	query := r.URL.Query()
	errMsg := query.Get("error")
	tag := query.Get("tag")
	if errMsg != "" && hash.VerifyHmac256(fmt.Sprintf("error=%s", errMsg), s.HMACSecret, tag) {
		flash = fmt.Sprintf("<p><i>%s</i></p>\n    ", html.EscapeString(errMsg))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, loginPage, flash)
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return &letterbox.Error{Code: letterbox.ErrInvalid, Op: "loginHandler", Message: "malformed form body", Err: err}
	}

	creds := letterbox.Credentials{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}

	if _, err := s.AuthService.ValidateCredentials(r.Context(), creds); err != nil {
		if letterbox.ErrorCode(err) != letterbox.ErrUnauthorized {
			return err
		}

		errMsg := letterbox.ErrorMessage(err)
		tag, err := hash.ComputeHmac256(fmt.Sprintf("error=%s", errMsg), s.HMACSecret)
		if err != nil {
			return &letterbox.Error{Code: letterbox.ErrInternal, Op: "loginHandler", Err: err}
		}

		location := fmt.Sprintf("/login?error=%s&tag=%s", url.QueryEscape(errMsg), url.QueryEscape(tag))
		http.Redirect(w, r, location, http.StatusSeeOther)
		return nil
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
	return nil
}
