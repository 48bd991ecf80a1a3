package stage

// Health reports whether one export pipeline stage (download, render, or
// upload) is ready to claim jobs. Detail carries the reason when it is not,
// such as a missing ffmpeg binary or unreachable blob storage.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy reports a stage that is ready to process jobs.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy reports a stage that cannot process jobs, with the reason.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
