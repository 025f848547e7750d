package docker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crewforge/crewd/internal/model"
	"github.com/crewforge/crewd/internal/sandbox/docker"
	"github.com/crewforge/crewd/internal/sandbox/docker/dockermock"
)

func sandboxConfig(t *testing.T) model.SandboxConfig {
	return model.SandboxConfig{
		Name:         "crewd-test-env",
		Image:        "nikolaik/python-nodejs:latest",
		WorkspaceDir: t.TempDir(),
		MountPath:    "/app",
	}
}

func inspectResponse(state, sandboxID string) container.InspectResponse {
	return container.InspectResponse{
		ContainerJSONBase: &container.ContainerJSONBase{
			ID:      "container-1",
			Created: "2026-08-30T10:00:00.000000000Z",
			State:   &container.State{Status: state},
		},
		Config: &container.Config{
			Labels: map[string]string{"crewd.sandbox-id": sandboxID},
		},
	}
}

func TestEngineAcquire(t *testing.T) {
	notFoundErr := errors.New("Error response from daemon: No such container: crewd-test-env")

	tests := map[string]struct {
		mock      func(m *dockermock.MockDockerClient)
		expErr    bool
		expIs     error
		expStatus model.SandboxStatus
	}{
		"A running sandbox should be reused without any lifecycle call.": {
			mock: func(m *dockermock.MockDockerClient) {
				m.On("Ping", mock.Anything).Once().Return(types.Ping{}, nil)
				m.On("ContainerInspect", mock.Anything, "crewd-test-env").Once().Return(inspectResponse("running", "id-1"), nil)
			},
			expStatus: model.SandboxStatusRunning,
		},

		"A stopped sandbox should be started, not recreated.": {
			mock: func(m *dockermock.MockDockerClient) {
				m.On("Ping", mock.Anything).Once().Return(types.Ping{}, nil)
				m.On("ContainerInspect", mock.Anything, "crewd-test-env").Once().Return(inspectResponse("exited", "id-1"), nil)
				m.On("ContainerStart", mock.Anything, "crewd-test-env", mock.Anything).Once().Return(nil)
			},
			expStatus: model.SandboxStatusRunning,
		},

		"An absent sandbox with the image present should be provisioned without a pull.": {
			mock: func(m *dockermock.MockDockerClient) {
				m.On("Ping", mock.Anything).Once().Return(types.Ping{}, nil)
				m.On("ContainerInspect", mock.Anything, "crewd-test-env").Once().Return(container.InspectResponse{}, notFoundErr)
				m.On("ImageList", mock.Anything, mock.Anything).Once().Return([]image.Summary{{ID: "img-1"}}, nil)
				m.On("ContainerCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, "crewd-test-env").Once().Return(container.CreateResponse{ID: "container-1"}, nil)
				m.On("ContainerStart", mock.Anything, "container-1", mock.Anything).Once().Return(nil)
			},
			expStatus: model.SandboxStatusRunning,
		},

		"An unreachable daemon should fail fast.": {
			mock: func(m *dockermock.MockDockerClient) {
				m.On("Ping", mock.Anything).Once().Return(types.Ping{}, errors.New("connection refused"))
			},
			expErr: true,
			expIs:  model.ErrRuntimeUnavailable,
		},

		"A create failure should surface as a provisioning error.": {
			mock: func(m *dockermock.MockDockerClient) {
				m.On("Ping", mock.Anything).Once().Return(types.Ping{}, nil)
				m.On("ContainerInspect", mock.Anything, "crewd-test-env").Once().Return(container.InspectResponse{}, notFoundErr)
				m.On("ImageList", mock.Anything, mock.Anything).Once().Return([]image.Summary{{ID: "img-1"}}, nil)
				m.On("ContainerCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, "crewd-test-env").Once().Return(container.CreateResponse{}, errors.New("boom"))
			},
			expErr: true,
			expIs:  model.ErrProvisioning,
		},

		"A start failure on a stopped sandbox should surface as a provisioning error.": {
			mock: func(m *dockermock.MockDockerClient) {
				m.On("Ping", mock.Anything).Once().Return(types.Ping{}, nil)
				m.On("ContainerInspect", mock.Anything, "crewd-test-env").Once().Return(inspectResponse("exited", "id-1"), nil)
				m.On("ContainerStart", mock.Anything, "crewd-test-env", mock.Anything).Once().Return(errors.New("boom"))
			},
			expErr: true,
			expIs:  model.ErrProvisioning,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			mockClient := &dockermock.MockDockerClient{}
			test.mock(mockClient)

			engine, err := docker.NewEngine(docker.EngineConfig{
				Client:  mockClient,
				Sandbox: sandboxConfig(t),
			})
			require.NoError(t, err)

			sb, err := engine.Acquire(context.Background())

			if test.expErr {
				assert.Error(err)
				if test.expIs != nil {
					assert.True(errors.Is(err, test.expIs), "expected error %v, got: %v", test.expIs, err)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(test.expStatus, sb.Status)
			}

			mockClient.AssertExpectations(t)
		})
	}
}

func TestEngineAcquireIdempotent(t *testing.T) {
	assert := assert.New(t)

	// First call provisions, second call just inspects: ContainerCreate must
	// run exactly once.
	mockClient := &dockermock.MockDockerClient{}
	notFoundErr := errors.New("No such container: crewd-test-env")

	mockClient.On("Ping", mock.Anything).Twice().Return(types.Ping{}, nil)
	mockClient.On("ContainerInspect", mock.Anything, "crewd-test-env").Once().Return(container.InspectResponse{}, notFoundErr)
	mockClient.On("ImageList", mock.Anything, mock.Anything).Once().Return([]image.Summary{{ID: "img-1"}}, nil)
	mockClient.On("ContainerCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, "crewd-test-env").Once().Return(container.CreateResponse{ID: "container-1"}, nil)
	mockClient.On("ContainerStart", mock.Anything, "container-1", mock.Anything).Once().Return(nil)
	mockClient.On("ContainerInspect", mock.Anything, "crewd-test-env").Once().Return(inspectResponse("running", "id-1"), nil)

	engine, err := docker.NewEngine(docker.EngineConfig{
		Client:  mockClient,
		Sandbox: sandboxConfig(t),
	})
	require.NoError(t, err)

	ctx := context.Background()

	first, err := engine.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(model.SandboxStatusRunning, first.Status)

	second, err := engine.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(model.SandboxStatusRunning, second.Status)

	mockClient.AssertExpectations(t)
	mockClient.AssertNumberOfCalls(t, "ContainerCreate", 1)
}

func TestEngineStatus(t *testing.T) {
	tests := map[string]struct {
		mock      func(m *dockermock.MockDockerClient)
		expStatus model.SandboxStatus
	}{
		"A missing container should report absent.": {
			mock: func(m *dockermock.MockDockerClient) {
				m.On("ContainerInspect", mock.Anything, "crewd-test-env").Once().Return(container.InspectResponse{}, errors.New("No such container: crewd-test-env"))
			},
			expStatus: model.SandboxStatusAbsent,
		},

		"A running container should report running.": {
			mock: func(m *dockermock.MockDockerClient) {
				m.On("ContainerInspect", mock.Anything, "crewd-test-env").Once().Return(inspectResponse("running", "id-1"), nil)
			},
			expStatus: model.SandboxStatusRunning,
		},

		"A created container should report provisioning.": {
			mock: func(m *dockermock.MockDockerClient) {
				m.On("ContainerInspect", mock.Anything, "crewd-test-env").Once().Return(inspectResponse("created", "id-1"), nil)
			},
			expStatus: model.SandboxStatusProvisioning,
		},

		"An exited container should report stopped.": {
			mock: func(m *dockermock.MockDockerClient) {
				m.On("ContainerInspect", mock.Anything, "crewd-test-env").Once().Return(inspectResponse("exited", "id-1"), nil)
			},
			expStatus: model.SandboxStatusStopped,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			mockClient := &dockermock.MockDockerClient{}
			test.mock(mockClient)

			engine, err := docker.NewEngine(docker.EngineConfig{
				Client:  mockClient,
				Sandbox: sandboxConfig(t),
			})
			require.NoError(t, err)

			sb, err := engine.Status(context.Background())
			require.NoError(t, err)
			assert.Equal(t, test.expStatus, sb.Status)

			mockClient.AssertExpectations(t)
		})
	}
}

func TestEngineExec(t *testing.T) {
	tests := map[string]struct {
		command     string
		opts        model.ExecOpts
		run         func(ctx context.Context, args ...string) (string, int, error)
		mock        func(m *dockermock.MockDockerClient)
		expErr      bool
		expIs       error
		expOutput   string
		expExitCode int
	}{
		"A successful command returns its output.": {
			command: "echo hello",
			run: func(ctx context.Context, args ...string) (string, int, error) {
				return "hello", 0, nil
			},
			mock:      func(m *dockermock.MockDockerClient) {},
			expOutput: "hello",
		},

		"A plain non-zero exit is data, not an error.": {
			command: "false",
			run: func(ctx context.Context, args ...string) (string, int, error) {
				return "boom", 3, nil
			},
			mock:        func(m *dockermock.MockDockerClient) {},
			expOutput:   "boom",
			expExitCode: 3,
		},

		"A failing command that prints 'is not running' against a running sandbox keeps its exit code.": {
			command: "systemctl status foo",
			run: func(ctx context.Context, args ...string) (string, int, error) {
				return "foo.service is not running", 3, nil
			},
			mock: func(m *dockermock.MockDockerClient) {
				m.On("ContainerInspect", mock.Anything, "crewd-test-env").Once().Return(inspectResponse("running", "id-1"), nil)
			},
			expOutput:   "foo.service is not running",
			expExitCode: 3,
		},

		"A daemon refusal against a stopped sandbox is a lifecycle error.": {
			command: "echo hello",
			run: func(ctx context.Context, args ...string) (string, int, error) {
				return "Error response from daemon: container crewd-test-env is not running", 1, nil
			},
			mock: func(m *dockermock.MockDockerClient) {
				m.On("ContainerInspect", mock.Anything, "crewd-test-env").Once().Return(inspectResponse("exited", "id-1"), nil)
			},
			expErr: true,
			expIs:  model.ErrNotValid,
		},

		"A daemon refusal for a removed sandbox maps to not found.": {
			command: "echo hello",
			run: func(ctx context.Context, args ...string) (string, int, error) {
				return "Error response from daemon: container crewd-test-env is not running", 1, nil
			},
			mock: func(m *dockermock.MockDockerClient) {
				m.On("ContainerInspect", mock.Anything, "crewd-test-env").Once().Return(container.InspectResponse{}, errors.New("No such container: crewd-test-env"))
			},
			expErr: true,
			expIs:  model.ErrNotFound,
		},

		"An empty command fails without running anything.": {
			command: "",
			run: func(ctx context.Context, args ...string) (string, int, error) {
				return "", 0, errors.New("should not run")
			},
			mock:   func(m *dockermock.MockDockerClient) {},
			expErr: true,
			expIs:  model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			mockClient := &dockermock.MockDockerClient{}
			test.mock(mockClient)

			engine, err := docker.NewEngine(docker.EngineConfig{
				Client:  mockClient,
				Sandbox: sandboxConfig(t),
			})
			require.NoError(t, err)
			engine.SetCommandRunner(test.run)

			result, err := engine.Exec(context.Background(), test.command, test.opts)

			if test.expErr {
				assert.Error(err)
				if test.expIs != nil {
					assert.True(errors.Is(err, test.expIs), "expected error %v, got: %v", test.expIs, err)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(test.expOutput, result.Output)
				assert.Equal(test.expExitCode, result.ExitCode)
			}

			mockClient.AssertExpectations(t)
		})
	}
}

func TestEngineExecArgs(t *testing.T) {
	assert := assert.New(t)

	engine, err := docker.NewEngine(docker.EngineConfig{
		Client:  &dockermock.MockDockerClient{},
		Sandbox: sandboxConfig(t),
	})
	require.NoError(t, err)

	var gotArgs []string
	engine.SetCommandRunner(func(ctx context.Context, args ...string) (string, int, error) {
		gotArgs = args
		return "", 0, nil
	})

	_, err = engine.Exec(context.Background(), "echo hi", model.ExecOpts{
		WorkingDir: "/tmp",
		Env:        map[string]string{"FOO": "bar"},
	})
	require.NoError(t, err)

	assert.Equal([]string{"exec", "-w", "/tmp", "-e", "FOO=bar", "crewd-test-env", "bash", "-c", "echo hi"}, gotArgs)
}

func TestEngineCheck(t *testing.T) {
	tests := map[string]struct {
		mock       func(m *dockermock.MockDockerClient)
		expResults map[string]model.CheckStatus
	}{
		"All checks should pass with a reachable daemon, a present image and a running sandbox.": {
			mock: func(m *dockermock.MockDockerClient) {
				m.On("Ping", mock.Anything).Once().Return(types.Ping{}, nil)
				m.On("ImageList", mock.Anything, mock.Anything).Once().Return([]image.Summary{{ID: "img-1"}}, nil)
				m.On("ContainerInspect", mock.Anything, "crewd-test-env").Once().Return(inspectResponse("running", "id-1"), nil)
			},
			expResults: map[string]model.CheckStatus{
				"docker_reachable": model.CheckStatusOK,
				"workspace_dir":    model.CheckStatusOK,
				"image_present":    model.CheckStatusOK,
				"sandbox_state":    model.CheckStatusOK,
			},
		},

		"A missing image and an absent sandbox should not fail, both get created on first run.": {
			mock: func(m *dockermock.MockDockerClient) {
				m.On("Ping", mock.Anything).Once().Return(types.Ping{}, nil)
				m.On("ImageList", mock.Anything, mock.Anything).Once().Return([]image.Summary{}, nil)
				m.On("ContainerInspect", mock.Anything, "crewd-test-env").Once().Return(container.InspectResponse{}, errors.New("Error response from daemon: No such container: crewd-test-env"))
			},
			expResults: map[string]model.CheckStatus{
				"docker_reachable": model.CheckStatusOK,
				"workspace_dir":    model.CheckStatusOK,
				"image_present":    model.CheckStatusWarning,
				"sandbox_state":    model.CheckStatusOK,
			},
		},

		"An unreachable daemon should short-circuit with a single error.": {
			mock: func(m *dockermock.MockDockerClient) {
				m.On("Ping", mock.Anything).Once().Return(types.Ping{}, errors.New("connection refused"))
			},
			expResults: map[string]model.CheckStatus{
				"docker_reachable": model.CheckStatusError,
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			mockClient := &dockermock.MockDockerClient{}
			test.mock(mockClient)

			engine, err := docker.NewEngine(docker.EngineConfig{
				Client:  mockClient,
				Sandbox: sandboxConfig(t),
			})
			require.NoError(t, err)

			results := engine.Check(context.Background())

			got := map[string]model.CheckStatus{}
			for _, r := range results {
				got[r.ID] = r.Status
			}
			assert.Equal(test.expResults, got)

			mockClient.AssertExpectations(t)
		})
	}
}
