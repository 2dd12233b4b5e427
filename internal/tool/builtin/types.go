package builtin

// -- Run Command --

type runCommandRequest struct {
	Command string `mapstructure:"command"`
	Timeout int    `mapstructure:"timeout"` // seconds; 0 means default
}

func (r *runCommandRequest) Validate() error {
	if r.Command == "" {
		return ErrCommandRequired
	}
	if r.Timeout < 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// -- Read File --

type readFileRequest struct {
	Path     string `mapstructure:"path"`
	MaxLines int    `mapstructure:"max_lines"` // 0 means default
}

func (r *readFileRequest) Validate() error {
	if r.Path == "" {
		return ErrPathRequired
	}
	if r.MaxLines < 0 {
		return ErrInvalidMaxLines
	}
	return nil
}

// -- Write File --

type writeFileRequest struct {
	Path       string `mapstructure:"path"`
	Content    string `mapstructure:"content"`
	Append     bool   `mapstructure:"append"`
	CreateDirs bool   `mapstructure:"create_dirs"`
}

func (r *writeFileRequest) Validate() error {
	if r.Path == "" {
		return ErrPathRequired
	}
	return nil
}

// -- List Directory --

type listDirectoryRequest struct {
	Path      string `mapstructure:"path"`
	Recursive bool   `mapstructure:"recursive"`
}

func (r *listDirectoryRequest) Validate() error {
	if r.Path == "" {
		return ErrPathRequired
	}
	return nil
}

// -- Read Logs --

type readLogsRequest struct {
	Path    string `mapstructure:"path"`
	Lines   int    `mapstructure:"lines"` // 0 means default
	Pattern string `mapstructure:"pattern"`
}

func (r *readLogsRequest) Validate() error {
	if r.Path == "" {
		return ErrPathRequired
	}
	if r.Lines < 0 {
		return ErrInvalidLineCount
	}
	return nil
}
