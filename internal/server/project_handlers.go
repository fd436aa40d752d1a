package server

import (
	"net/http"

	"github.com/qkhacks/controller/internal/service"
)

type createProjectRequest struct {
	Name string `json:"name"`
}

func handleCreateProject(projects *service.ProjectService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createProjectRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		project, err := projects.Create(r.Context(), req.Name, callerFrom(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, project)
	}
}

func handleFetchProjects(projects *service.ProjectService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := projects.Fetch(r.Context(), callerFrom(r), pageFrom(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func handleGetProject(projects *service.ProjectService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		project, err := projects.Get(r.Context(), projectID, callerFrom(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, project)
	}
}

type updateProjectRequest struct {
	Name string `json:"name"`
}

func handleUpdateProject(projects *service.ProjectService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req updateProjectRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		if err := projects.Update(r.Context(), projectID, req.Name, callerFrom(r)); err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"id": projectID.String()})
	}
}

func handleDeleteProject(projects *service.ProjectService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		if err := projects.Delete(r.Context(), projectID, callerFrom(r)); err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"id": projectID.String()})
	}
}

type accessRequest struct {
	Permissions []string `json:"permissions"`
}

func handleAddAccess(projects *service.ProjectService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		userID, err := uuidParam(r, "userID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req accessRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		grant, err := projects.AddAccess(r.Context(), projectID, userID, req.Permissions, callerFrom(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, grant)
	}
}

func handleDeleteAccess(projects *service.ProjectService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		userID, err := uuidParam(r, "userID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req accessRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		if err := projects.DeleteAccess(r.Context(), projectID, userID, req.Permissions, callerFrom(r)); err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func handleDeleteAllAccess(projects *service.ProjectService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		userID, err := uuidParam(r, "userID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		if err := projects.DeleteAllAccess(r.Context(), projectID, userID, callerFrom(r)); err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func handleFetchProjectUsers(projects *service.ProjectService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		members, err := projects.FetchUsers(r.Context(), projectID, callerFrom(r), pageFrom(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, members)
	}
}
