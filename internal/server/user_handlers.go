package server

import (
	"net/http"

	"github.com/qkhacks/controller/internal/service"
)

type signUpRequest struct {
	Username         string `json:"username"`
	Password         string `json:"password"`
	OrganizationName string `json:"organization_name"`
}

func handleSignUp(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signUpRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		user, err := users.SignUp(r.Context(), req.Username, req.Password, req.OrganizationName)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, user)
	}
}

type tokenRequest struct {
	Username         string `json:"username"`
	Password         string `json:"password"`
	OrganizationName string `json:"organization_name"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func handleToken(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tokenRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		token, err := users.Token(r.Context(), req.Username, req.Password, req.OrganizationName)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, tokenResponse{Token: token})
	}
}

func handleGetMe(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := users.Get(r.Context(), callerFrom(r).ID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}

type changePasswordRequest struct {
	Password string `json:"password"`
}

func handleChangePassword(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req changePasswordRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		if err := users.ChangePassword(r.Context(), req.Password, callerFrom(r)); err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

type addUserRequest struct {
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
}

type addUserResponse struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

func handleAddUser(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addUserRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		user, password, err := users.Add(r.Context(), req.Username, req.Admin, callerFrom(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, addUserResponse{ID: user.ID.String(), Password: password})
	}
}

func handleFetchUsers(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := users.Fetch(r.Context(), callerFrom(r), pageFrom(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func handleGetUser(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuidParam(r, "userID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		user, err := users.GetByOrganization(r.Context(), userID, callerFrom(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}

type resetPasswordResponse struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

func handleResetPassword(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuidParam(r, "userID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		password, err := users.ResetPassword(r.Context(), userID, callerFrom(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, resetPasswordResponse{ID: userID.String(), Password: password})
	}
}

type changeAdminRequest struct {
	Admin *bool `json:"admin"`
}

func handleChangeAdmin(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuidParam(r, "userID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req changeAdminRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if req.Admin == nil {
			writeError(w, r, service.InvalidInputf("admin is required"))
			return
		}

		if err := users.ChangeAdmin(r.Context(), userID, *req.Admin, callerFrom(r)); err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func handleDeleteUser(users *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuidParam(r, "userID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		if err := users.Delete(r.Context(), userID, callerFrom(r)); err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"id": userID.String()})
	}
}
