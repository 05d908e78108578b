package errors

import "fmt"

// WrapRegisterError wraps a host container failure for one binding
func WrapRegisterError(binding string, cause error) *BaseError {
	return Wrap(RegistrationErrorCode, fmt.Sprintf("failed to register %s", binding), cause).
		WithContext("binding", binding)
}

// WrapFileSystemError wraps file system related errors
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s file '%s'", operation, path)
	return Wrap(FileSystemErrorCode, message, cause).
		WithContext("operation", operation).
		WithContext("path", path)
}

// WrapConfigurationError wraps configuration-related errors
func WrapConfigurationError(configType, operation string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s configuration '%s'", operation, configType)
	return Wrap(ConfigurationErrorCode, message, cause).
		WithContext("config_type", configType).
		WithContext("operation", operation)
}

// WrapGenerateError wraps a failure while emitting a generated file
func WrapGenerateError(target string, cause error) *BaseError {
	return Wrap(GenerationErrorCode, fmt.Sprintf("failed to generate %s", target), cause).
		WithContext("target", target)
}
