package handler

import (
	"net/http"
	"strings"

	"ambulancewatch/internal/config"
	"ambulancewatch/internal/dto"
	"ambulancewatch/internal/logger"
	"ambulancewatch/internal/model"
	"ambulancewatch/internal/repository"
	"ambulancewatch/internal/session"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	MsgAllFieldsRequired   = "All fields are required."
	MsgPasswordsMismatch   = "Passwords do not match!"
	MsgUsernameTaken       = "Username already exists!"
	MsgEmailTaken          = "Email is already registered!"
	MsgRegistered          = "Registration successful! Please log in."
	MsgCredentialsRequired = "Username and password are required."
	MsgInvalidCredentials  = "Invalid username or password."
	MsgLoggedIn            = "Login successful!"
	MsgLoggedOut           = "You have successfully logged out."

	msgInternalServerError = "Internal Server Error"
)

const (
	registerPage = "register"
	loginPage    = "login"
)

// RegisterHandler serves the registration page on GET and creates an account on POST.
func RegisterHandler(cfg *config.Config, users repository.UserRepository, sessions *session.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			servePage(w, r, cfg.StaticDir, registerPage)
			return
		}

		username := strings.TrimSpace(r.PostFormValue("username"))
		email := strings.TrimSpace(r.PostFormValue("email"))
		password1 := strings.TrimSpace(r.PostFormValue("password1"))
		password2 := strings.TrimSpace(r.PostFormValue("password2"))

		if username == "" || email == "" || password1 == "" || password2 == "" {
			rejectForm(w, r, sessions, logger, http.StatusBadRequest, MsgAllFieldsRequired)
			return
		}
		if password1 != password2 {
			rejectForm(w, r, sessions, logger, http.StatusBadRequest, MsgPasswordsMismatch)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password1), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("Error hashing password: %v", err)
			writeError(w, http.StatusInternalServerError, msgInternalServerError)
			return
		}

		_, err = users.Insert(&model.User{Username: username, Email: email, PasswordHash: string(hash)})
		switch {
		case errors.Is(err, repository.ErrDuplicateUsername):
			rejectForm(w, r, sessions, logger, http.StatusBadRequest, MsgUsernameTaken)
			return
		case errors.Is(err, repository.ErrDuplicateEmail):
			rejectForm(w, r, sessions, logger, http.StatusBadRequest, MsgEmailTaken)
			return
		case err != nil:
			logger.Error("Error creating user %s: %v", username, err)
			writeError(w, http.StatusInternalServerError, msgInternalServerError)
			return
		}

		logger.Info("User %s registered", username)
		if err := sessions.AddFlash(w, r, session.LevelSuccess, MsgRegistered); err != nil {
			logger.Error("Error saving session: %v", err)
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

// LoginHandler serves the login page on GET and authenticates on POST.
func LoginHandler(cfg *config.Config, users repository.UserRepository, sessions *session.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			servePage(w, r, cfg.StaticDir, loginPage)
			return
		}

		username := strings.TrimSpace(r.PostFormValue("username"))
		password := strings.TrimSpace(r.PostFormValue("password"))
		if username == "" || password == "" {
			rejectForm(w, r, sessions, logger, http.StatusBadRequest, MsgCredentialsRequired)
			return
		}

		user, err := users.GetByUsername(username)
		if err != nil {
			logger.Error("Error loading user %s: %v", username, err)
			writeError(w, http.StatusInternalServerError, msgInternalServerError)
			return
		}
		if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
			logger.Warning("Failed login for %s", username)
			rejectForm(w, r, sessions, logger, http.StatusUnauthorized, MsgInvalidCredentials)
			return
		}

		if err := sessions.Login(w, r, user.ID, user.Username, MsgLoggedIn); err != nil {
			logger.Error("Error saving session: %v", err)
			writeError(w, http.StatusInternalServerError, msgInternalServerError)
			return
		}
		logger.Info("User %s logged in", username)
		http.Redirect(w, r, "/main", http.StatusSeeOther)
	}
}

// rejectForm answers a failed auth form with a JSON error and keeps the same
// message as an error flash for the next page.
func rejectForm(w http.ResponseWriter, r *http.Request, sessions *session.Manager, logger *logger.Logger, status int, msg string) {
	if err := sessions.AddFlash(w, r, session.LevelError, msg); err != nil {
		logger.Error("Error saving session: %v", err)
	}
	writeError(w, status, msg)
}

// LogoutHandler ends the session and goes back to the home page.
func LogoutHandler(sessions *session.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessions.Logout(w, r, MsgLoggedOut); err != nil {
			logger.Error("Error saving session: %v", err)
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// MessagesHandler returns and clears pending flash messages.
func MessagesHandler(sessions *session.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flashes, err := sessions.PopFlashes(w, r)
		if err != nil {
			logger.Error("Error saving session: %v", err)
		}
		writeJSON(w, http.StatusOK, dto.MessagesData{Messages: flashes})
	}
}
