package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/qkhacks/controller/internal/service"
)

type createResourceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateResourceRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func handleCreateRegion(regions *service.RegionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req createResourceRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		region, err := regions.Create(r.Context(), req.Name, req.Description, projectID, callerFrom(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, region)
	}
}

func handleFetchRegions(regions *service.RegionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		result, err := regions.Fetch(r.Context(), projectID, callerFrom(r), pageFrom(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func handleGetRegion(regions *service.RegionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		regionID, err := uuidParam(r, "regionID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		region, err := regions.Get(r.Context(), regionID, projectID, callerFrom(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, region)
	}
}

func handleUpdateRegion(regions *service.RegionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		regionID, err := uuidParam(r, "regionID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req updateResourceRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		if err := regions.Update(r.Context(), regionID, projectID, req.Name, req.Description, callerFrom(r)); err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"id": regionID.String()})
	}
}

func handleDeleteRegion(regions *service.RegionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		regionID, err := uuidParam(r, "regionID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		if err := regions.Delete(r.Context(), regionID, projectID, callerFrom(r)); err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"id": regionID.String()})
	}
}

type createDataCenterRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	RegionID    string `json:"region_id"`
}

func handleCreateDataCenter(dataCenters *service.DataCenterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req createDataCenterRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		regionID, err := uuid.Parse(req.RegionID)
		if err != nil {
			writeError(w, r, service.InvalidInputf("invalid region_id"))
			return
		}

		dc, err := dataCenters.Create(r.Context(), req.Name, req.Description, regionID, projectID, callerFrom(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, dc)
	}
}

func handleFetchDataCenters(dataCenters *service.DataCenterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		regionID, err := uuidQuery(r, "region")
		if err != nil {
			writeError(w, r, err)
			return
		}

		result, err := dataCenters.Fetch(r.Context(), projectID, regionID, callerFrom(r), pageFrom(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func handleGetDataCenter(dataCenters *service.DataCenterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		dataCenterID, err := uuidParam(r, "dataCenterID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		dc, err := dataCenters.Get(r.Context(), dataCenterID, projectID, callerFrom(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, dc)
	}
}

func handleUpdateDataCenter(dataCenters *service.DataCenterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		dataCenterID, err := uuidParam(r, "dataCenterID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req updateResourceRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		if err := dataCenters.Update(r.Context(), dataCenterID, projectID, req.Name, req.Description, callerFrom(r)); err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"id": dataCenterID.String()})
	}
}

func handleDeleteDataCenter(dataCenters *service.DataCenterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		dataCenterID, err := uuidParam(r, "dataCenterID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		if err := dataCenters.Delete(r.Context(), dataCenterID, projectID, callerFrom(r)); err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"id": dataCenterID.String()})
	}
}

type createMachineKeyRequest struct {
	Name string `json:"name"`
}

func handleCreateMachineKey(machineKeys *service.MachineKeyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req createMachineKeyRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		key, err := machineKeys.Create(r.Context(), req.Name, projectID, callerFrom(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, key)
	}
}

func handleFetchMachineKeys(machineKeys *service.MachineKeyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		result, err := machineKeys.Fetch(r.Context(), projectID, callerFrom(r), pageFrom(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func handleGetMachineKey(machineKeys *service.MachineKeyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		machineKeyID, err := uuidParam(r, "machineKeyID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		key, err := machineKeys.Get(r.Context(), machineKeyID, projectID, callerFrom(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, key)
	}
}

type updateMachineKeyRequest struct {
	Name *string `json:"name"`
}

func handleUpdateMachineKey(machineKeys *service.MachineKeyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		machineKeyID, err := uuidParam(r, "machineKeyID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req updateMachineKeyRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		if err := machineKeys.Update(r.Context(), machineKeyID, projectID, req.Name, callerFrom(r)); err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"id": machineKeyID.String()})
	}
}

func handleDeleteMachineKey(machineKeys *service.MachineKeyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		machineKeyID, err := uuidParam(r, "machineKeyID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		if err := machineKeys.Delete(r.Context(), machineKeyID, projectID, callerFrom(r)); err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"id": machineKeyID.String()})
	}
}

type machineKeySecretResponse struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

func handleGetMachineKeySecret(machineKeys *service.MachineKeyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		machineKeyID, err := uuidParam(r, "machineKeyID")
		if err != nil {
			writeError(w, r, err)
			return
		}

		secret, err := machineKeys.GetKey(r.Context(), machineKeyID, projectID, callerFrom(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, machineKeySecretResponse{ID: machineKeyID.String(), Key: secret})
	}
}
