package config

import "path/filepath"

// AppPath returns the bundle root, <output_folder>/<app_name>.app.
func (c *Config) AppPath() string {
	return filepath.Join(c.OutputFolder, c.AppName+".app")
}

// ContentsDir returns <app>/Contents.
func (c *Config) ContentsDir() string {
	return filepath.Join(c.AppPath(), "Contents")
}

// MacOSDir returns the bundle's executable directory.
func (c *Config) MacOSDir() string {
	return filepath.Join(c.ContentsDir(), "MacOS")
}

// ResourceDir returns the directory the environment is copied into.
func (c *Config) ResourceDir() string {
	return filepath.Join(c.ContentsDir(), "Resources")
}

// LauncherPath returns the path of the launcher script.
func (c *Config) LauncherPath() string {
	return filepath.Join(c.MacOSDir(), c.AppName)
}

// PlistPath returns the path of Info.plist.
func (c *Config) PlistPath() string {
	return filepath.Join(c.ContentsDir(), "Info.plist")
}

// InstalledResourceDir is where the resource directory lives once the app
// has been dragged into the install directory. Absolute environment paths
// are rewritten to it.
func (c *Config) InstalledResourceDir() string {
	return filepath.Join(c.InstallDir, c.AppName+".app", "Contents", "Resources")
}

// ImagePath returns the disk image output path.
func (c *Config) ImagePath() string {
	return filepath.Join(c.OutputFolder, c.DMG.File)
}
