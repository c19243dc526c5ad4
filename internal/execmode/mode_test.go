package execmode

import "testing"

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestResolve_Precedence(t *testing.T) {
	tests := []struct {
		name          string
		flags         Flags
		env           map[string]string
		configDefault string
		want          Mode
	}{
		{"default", Flags{}, nil, "", Interactive},
		{"dry-run flag", Flags{DryRun: true}, nil, "", DryRun},
		{"yes flag", Flags{Yes: true}, nil, "", AssumeYes},
		{"force-yes flag", Flags{ForceYes: true}, nil, "", ForceYes},
		{"batch flag", Flags{Batch: true}, nil, "", Batch},
		{"non-interactive flag", Flags{NonInteractive: true}, nil, "", Batch},
		{"force-yes beats yes", Flags{Yes: true, ForceYes: true}, nil, "", ForceYes},
		{"dry-run beats everything", Flags{DryRun: true, ForceYes: true}, nil, "", DryRun},
		{"env assume yes", Flags{}, map[string]string{"SAFE_ASSUME_YES": "1"}, "", AssumeYes},
		{"env force yes", Flags{}, map[string]string{"SAFE_FORCE_YES": "1"}, "", ForceYes},
		{"env noninteractive", Flags{}, map[string]string{"SAFE_NONINTERACTIVE": "1"}, "", Batch},
		{"flag beats env", Flags{DryRun: true}, map[string]string{"SAFE_FORCE_YES": "1"}, "", DryRun},
		{"config default", Flags{}, nil, "assume-yes", AssumeYes},
		{"env beats config", Flags{}, map[string]string{"SAFE_NONINTERACTIVE": "1"}, "force-yes", Batch},
		{"unknown config ignored", Flags{}, nil, "paranoid", Interactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.flags, tt.configDefault, env(tt.env))
			if got != tt.want {
				t.Errorf("Resolve = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolve_CICoercion(t *testing.T) {
	for _, v := range []string{"CI", "CONTINUOUS_INTEGRATION", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"} {
		t.Run(v, func(t *testing.T) {
			got := Resolve(Flags{}, "", env(map[string]string{v: "true"}))
			if got != AssumeYes {
				t.Errorf("CI var %s: got %s, want assume-yes", v, got)
			}
		})
	}

	// Explicit ForceYes overrides CI coercion.
	got := Resolve(Flags{ForceYes: true}, "", env(map[string]string{"CI": "true"}))
	if got != ForceYes {
		t.Errorf("CI + --force-yes: got %s, want force-yes", got)
	}

	// SAFE_FORCE_YES also overrides CI coercion.
	got = Resolve(Flags{}, "", env(map[string]string{"CI": "true", "SAFE_FORCE_YES": "1"}))
	if got != ForceYes {
		t.Errorf("CI + SAFE_FORCE_YES: got %s, want force-yes", got)
	}
}

func TestModeString(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{Interactive, "interactive"},
		{DryRun, "dry-run"},
		{AssumeYes, "assume-yes"},
		{ForceYes, "force-yes"},
		{Batch, "batch"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("%d.String() = %s, want %s", tt.mode, got, tt.want)
		}
	}
}
